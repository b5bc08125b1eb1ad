package chat

import (
	"log/slog"
	"time"

	"github.com/devparmar16/campus-ease/internal/feed"
	"github.com/devparmar16/campus-ease/internal/presence"
)

// windowSize bounds the per-college backlog replayed to new subscribers.
const windowSize = 200

type scopedEvent struct {
	college string
	event   feed.Event
}

type typingSignal struct {
	college string
	userID  int64
	name    string
	stop    bool
}

type rawBroadcast struct {
	college string
	payload []byte
}

// Hub owns all realtime state for community chat: connected clients grouped
// by college scope, a reconciled message window per scope, and the typing
// trackers. Everything is mutated from the single Run goroutine.
type Hub struct {
	Logger *slog.Logger

	idle time.Duration

	register   chan *Client
	unregister chan *Client
	events     chan scopedEvent
	typing     chan typingSignal
	raw        chan rawBroadcast

	// college -> userID -> connections (handles multi-tab / multi-device)
	clients map[string]map[int64]map[*Client]bool
	windows map[string]*feed.View
	typers  map[string]*presence.Tracker
}

func NewHub(logger *slog.Logger, typingIdle time.Duration) *Hub {
	return &Hub{
		Logger:     logger,
		idle:       typingIdle,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan scopedEvent, 64),
		typing:     make(chan typingSignal, 64),
		raw:        make(chan rawBroadcast, 16),
		clients:    make(map[string]map[int64]map[*Client]bool),
		windows:    make(map[string]*feed.View),
		typers:     make(map[string]*presence.Tracker),
	}
}

// BroadcastEvent hands a message change event to the hub. It is the sole
// path by which a mutation becomes visible to subscribers, senders included.
func (h *Hub) BroadcastEvent(college string, ev feed.Event) {
	h.events <- scopedEvent{college: college, event: ev}
}

// BroadcastRaw fans an already-encoded frame out to a college scope
// (emergency alerts use this).
func (h *Hub) BroadcastRaw(college string, payload []byte) {
	h.raw <- rawBroadcast{college: college, payload: payload}
}

func (h *Hub) Run() {
	// The prune tick ends "is typing" for clients that vanished without a
	// stop frame.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case se := <-h.events:
			h.applyAndFanOut(se.college, se.event)
		case ts := <-h.typing:
			h.handleTyping(ts)
		case rb := <-h.raw:
			h.fanOut(rb.college, rb.payload)
		case now := <-ticker.C:
			h.pruneTypers(now)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	byUser := h.clients[c.College]
	if byUser == nil {
		byUser = make(map[int64]map[*Client]bool)
		h.clients[c.College] = byUser
	}
	if byUser[c.UserID] == nil {
		byUser[c.UserID] = make(map[*Client]bool)
	}
	byUser[c.UserID][c] = true

	// Replay the reconciled window so a fresh subscriber starts consistent
	// without a round trip to the store.
	if w, ok := h.windows[c.College]; ok {
		for _, m := range w.Messages() {
			payload, err := feed.EncodeEvent(feed.Inserted{Message: m})
			if err != nil {
				continue
			}
			select {
			case c.Send <- payload:
			default:
				return
			}
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	byUser, ok := h.clients[c.College]
	if !ok {
		return
	}
	set, ok := byUser[c.UserID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(byUser, c.UserID)
		// Last connection gone: the user cannot be typing anymore.
		if tr, ok := h.typers[c.College]; ok && tr.IsTyping(c.UserID, time.Now()) {
			tr.Stop(c.UserID)
			h.broadcastTyping(c.College, c.UserID, c.Name, typeTypingStop)
		}
	}
	if len(byUser) == 0 {
		delete(h.clients, c.College)
	}
}

func (h *Hub) applyAndFanOut(college string, ev feed.Event) {
	w := h.windows[college]
	if w == nil {
		w = feed.NewView()
		h.windows[college] = w
	}
	if !w.Apply(ev) && ev.Kind() == feed.KindInserted {
		// Duplicate insert delivery; subscribers dedupe the same way, but
		// there is no point repeating it.
		h.Logger.Debug("duplicate insert event skipped", "college", college)
		return
	}
	w.TrimOldest(windowSize)

	payload, err := feed.EncodeEvent(ev)
	if err != nil {
		h.Logger.Error("encode change event", "error", err)
		return
	}
	h.fanOut(college, payload)
}

func (h *Hub) handleTyping(ts typingSignal) {
	tr := h.typers[ts.college]
	if tr == nil {
		tr = presence.NewTracker(h.idle)
		h.typers[ts.college] = tr
	}
	if ts.stop {
		tr.Stop(ts.userID)
		h.broadcastTyping(ts.college, ts.userID, ts.name, typeTypingStop)
		return
	}
	wasTyping := tr.IsTyping(ts.userID, time.Now())
	tr.Touch(ts.userID, time.Now())
	if !wasTyping {
		h.broadcastTyping(ts.college, ts.userID, ts.name, typeTypingStart)
	}
}

func (h *Hub) pruneTypers(now time.Time) {
	for college, tr := range h.typers {
		for _, uid := range tr.Prune(now) {
			h.broadcastTyping(college, uid, "", typeTypingStop)
		}
	}
}

func (h *Hub) broadcastTyping(college string, userID int64, name, kind string) {
	payload, err := encodeTyping(kind, userID, name)
	if err != nil {
		return
	}
	h.fanOut(college, payload)
}

func (h *Hub) fanOut(college string, payload []byte) {
	byUser := h.clients[college]
	for uid, set := range byUser {
		for client := range set {
			select {
			case client.Send <- payload:
			default:
				// slow/broken client -> drop
				close(client.Send)
				delete(set, client)
				h.Logger.Warn("dropped slow client", "user_id", uid, "college", college)
			}
		}
		if len(set) == 0 {
			delete(byUser, uid)
		}
	}
}
