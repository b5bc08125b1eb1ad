package feed

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func msg(id int64, content string, at time.Time) Message {
	return Message{
		ID:         id,
		SenderID:   1,
		SenderName: "Alice",
		SenderRole: "student",
		Content:    content,
		CreatedAt:  at,
		College:    "college_1",
	}
}

func ids(v *View) []int64 {
	msgs := v.Messages()
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestViewInsertIdempotent(t *testing.T) {
	v := NewView()
	m := msg(42, "Hello", t0)

	if !v.Apply(Inserted{Message: m}) {
		t.Fatal("first insert reported no change")
	}
	if v.Apply(Inserted{Message: m}) {
		t.Error("duplicate insert reported a change")
	}
	if v.Len() != 1 {
		t.Fatalf("Len = %d after duplicate insert, want 1", v.Len())
	}
}

func TestViewUnknownUpdateDeleteNoop(t *testing.T) {
	v := NewView()
	v.Load([]Message{msg(1, "a", t0)})

	if v.Apply(Updated{Message: msg(99, "x", t0)}) {
		t.Error("update for unknown id reported a change")
	}
	if v.Apply(Deleted{ID: 99}) {
		t.Error("delete for unknown id reported a change")
	}
	if got := ids(v); !cmp.Equal(got, []int64{1}) {
		t.Errorf("ids = %v, want [1]", got)
	}
}

func TestViewOrderingPreserved(t *testing.T) {
	m1 := msg(1, "first", t0)
	m2 := msg(2, "second", t0.Add(time.Minute))
	m3 := msg(3, "third", t0.Add(2*time.Minute))

	v := NewView()
	v.Load([]Message{m1, m2, m3})

	// Out-of-band updates arrive in arbitrary order; positions must not move.
	u3 := m3
	u3.Content, u3.Edited = "third*", true
	u1 := m1
	u1.Content, u1.Edited = "first*", true
	v.Apply(Updated{Message: u3})
	v.Apply(Updated{Message: u1})

	if got := ids(v); !cmp.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("ids = %v, want [1 2 3]", got)
	}
}

func TestViewLoadSortsFetchedRows(t *testing.T) {
	m1 := msg(1, "a", t0)
	m2 := msg(2, "b", t0.Add(time.Second))
	m3 := msg(3, "c", t0.Add(2*time.Second))

	v := NewView()
	v.Load([]Message{m3, m1, m2})

	if got := ids(v); !cmp.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("ids = %v, want [1 2 3]", got)
	}
}

func TestViewInsertOutOfOrderTimestamp(t *testing.T) {
	v := NewView()
	v.Apply(Inserted{Message: msg(2, "later", t0.Add(time.Minute))})
	v.Apply(Inserted{Message: msg(1, "earlier", t0)})

	if got := ids(v); !cmp.Equal(got, []int64{1, 2}) {
		t.Errorf("ids = %v, want [1 2]", got)
	}
}

func TestViewSendAndReconcile(t *testing.T) {
	// The view starts empty; the sent message appears only via its insert
	// event, exactly once.
	v := NewView()
	ev, err := DecodeEvent([]byte(`{
		"type": "message_inserted",
		"message": {
			"id": 42,
			"sender_id": 1,
			"sender_name": "Alice",
			"sender_role": "student",
			"content": "Hello",
			"created_at": "2025-03-01T10:00:00Z",
			"college_id": "college_1"
		}
	}`))
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	v.Apply(ev)
	v.Apply(ev)

	if v.Len() != 1 {
		t.Fatalf("Len = %d, want 1", v.Len())
	}
	got, ok := v.Get(42)
	if !ok {
		t.Fatal("message 42 missing")
	}
	if got.Content != "Hello" || got.College != "college_1" {
		t.Errorf("got %+v", got)
	}
}

func TestViewEditReconciliation(t *testing.T) {
	m5 := msg(5, "old", t0.Add(time.Minute))
	v := NewView()
	v.Load([]Message{msg(4, "before", t0), m5, msg(6, "after", t0.Add(2 * time.Minute))})

	edited := m5
	edited.Content = "new"
	edited.Edited = true
	v.Apply(Updated{Message: edited})

	got, _ := v.Get(5)
	if got.Content != "new" || !got.Edited {
		t.Errorf("entry 5 = %+v, want content=new edited=true", got)
	}
	if gotIDs := ids(v); !cmp.Equal(gotIDs, []int64{4, 5, 6}) {
		t.Errorf("ids = %v, want [4 5 6] (position must be unchanged)", gotIDs)
	}
}

func TestViewDeletion(t *testing.T) {
	v := NewView()
	v.Load([]Message{msg(1, "a", t0), msg(2, "b", t0.Add(time.Second)), msg(3, "c", t0.Add(2 * time.Second))})

	v.Apply(Deleted{ID: 2})

	if got := ids(v); !cmp.Equal(got, []int64{1, 3}) {
		t.Errorf("ids = %v, want [1 3]", got)
	}
	// Index must stay usable after the removal.
	if _, ok := v.Get(3); !ok {
		t.Error("message 3 unreachable after deleting 2")
	}
}

func TestViewTrimOldest(t *testing.T) {
	v := NewView()
	v.Load([]Message{msg(1, "a", t0), msg(2, "b", t0.Add(time.Second)), msg(3, "c", t0.Add(2 * time.Second))})

	v.TrimOldest(2)

	if got := ids(v); !cmp.Equal(got, []int64{2, 3}) {
		t.Errorf("ids = %v, want [2 3]", got)
	}
	if _, ok := v.Get(1); ok {
		t.Error("trimmed message still indexed")
	}
}
