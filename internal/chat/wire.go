package chat

import "encoding/json"

// Frame types beyond the feed change events.
const (
	typeTypingStart = "typing_start"
	typeTypingStop  = "typing_stop"
	TypeAlert       = "alert"
)

// typingFrame is the ephemeral presence signal; it never touches the store.
type typingFrame struct {
	Type       string `json:"type"`
	UserID     int64  `json:"user_id"`
	SenderName string `json:"sender_name,omitempty"`
}

func encodeTyping(kind string, userID int64, name string) ([]byte, error) {
	return json.Marshal(typingFrame{Type: kind, UserID: userID, SenderName: name})
}

// AlertFrame carries an emergency alert to connected clients.
type AlertFrame struct {
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Severity string `json:"severity"`
	IssuedAt string `json:"issued_at"`
}

func EncodeAlert(f AlertFrame) ([]byte, error) {
	f.Type = TypeAlert
	return json.Marshal(f)
}
