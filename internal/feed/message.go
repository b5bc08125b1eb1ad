// Package feed holds the ordered community-message view and the change
// events that keep it consistent with the store. The View is the single
// reconciliation path: a sent message becomes visible only once its insert
// event comes back through Apply.
package feed

import "time"

// A Message is one unit of community chat content. The store assigns ID and
// CreatedAt; both are stable once assigned. Edited only ever flips false to
// true.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	SenderRole string    `json:"sender_role"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	College    string    `json:"college_id"`
	Edited     bool      `json:"is_edited"`
}
