package feed

import "sort"

// View is a materialized, ordered sequence of messages for one college
// scope: ascending by creation time with ID as tie-break, at most one entry
// per ID. It is not safe for concurrent use; callers serialize access (the
// hub applies events from a single goroutine).
type View struct {
	msgs  []Message
	index map[int64]int // message ID -> position in msgs
}

func NewView() *View {
	return &View{index: make(map[int64]int)}
}

// Load replaces the view wholesale with the fetched history. The input is
// sorted here rather than trusted, so a store that returns rows out of order
// cannot break the ordering invariant.
func (v *View) Load(msgs []Message) {
	v.msgs = make([]Message, len(msgs))
	copy(v.msgs, msgs)
	sort.SliceStable(v.msgs, func(i, j int) bool {
		if v.msgs[i].CreatedAt.Equal(v.msgs[j].CreatedAt) {
			return v.msgs[i].ID < v.msgs[j].ID
		}
		return v.msgs[i].CreatedAt.Before(v.msgs[j].CreatedAt)
	})
	v.index = make(map[int64]int, len(v.msgs))
	v.reindex(0)
}

// Apply reconciles one change event and reports whether the view changed.
// Duplicate inserts are skipped; updates and deletes for unknown IDs are
// no-ops, since events may race the initial load.
func (v *View) Apply(ev Event) bool {
	switch e := ev.(type) {
	case Inserted:
		return v.insert(e.Message)
	case Updated:
		return v.update(e.Message)
	case Deleted:
		return v.remove(e.ID)
	}
	return false
}

func (v *View) insert(m Message) bool {
	if _, ok := v.index[m.ID]; ok {
		return false
	}
	// IDs are assigned monotonically, so almost every insert lands at the
	// end. Walk back only as far as the ordering requires.
	pos := len(v.msgs)
	for pos > 0 {
		prev := v.msgs[pos-1]
		if prev.CreatedAt.Before(m.CreatedAt) ||
			(prev.CreatedAt.Equal(m.CreatedAt) && prev.ID < m.ID) {
			break
		}
		pos--
	}
	v.msgs = append(v.msgs, Message{})
	copy(v.msgs[pos+1:], v.msgs[pos:])
	v.msgs[pos] = m
	v.reindex(pos)
	return true
}

func (v *View) update(m Message) bool {
	pos, ok := v.index[m.ID]
	if !ok {
		return false
	}
	// Position is preserved: an edit changes content, never ordering.
	v.msgs[pos] = m
	return true
}

func (v *View) remove(id int64) bool {
	pos, ok := v.index[id]
	if !ok {
		return false
	}
	v.msgs = append(v.msgs[:pos], v.msgs[pos+1:]...)
	delete(v.index, id)
	v.reindex(pos)
	return true
}

// TrimOldest drops entries from the front until at most max remain.
func (v *View) TrimOldest(max int) {
	if max < 0 || len(v.msgs) <= max {
		return
	}
	v.msgs = append([]Message(nil), v.msgs[len(v.msgs)-max:]...)
	v.index = make(map[int64]int, len(v.msgs))
	v.reindex(0)
}

// Messages returns a copy of the current sequence.
func (v *View) Messages() []Message {
	out := make([]Message, len(v.msgs))
	copy(out, v.msgs)
	return out
}

func (v *View) Get(id int64) (Message, bool) {
	if pos, ok := v.index[id]; ok {
		return v.msgs[pos], true
	}
	return Message{}, false
}

func (v *View) Len() int { return len(v.msgs) }

func (v *View) reindex(from int) {
	if v.index == nil {
		v.index = make(map[int64]int, len(v.msgs))
	}
	for i := from; i < len(v.msgs); i++ {
		v.index[v.msgs[i].ID] = i
	}
}
