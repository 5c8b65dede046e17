package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer is one question/answer pair of a feedback form.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Feedback is an attendee's immutable response for an event.
type Feedback struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	Answers   []Answer  `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy.
func (f Feedback) Clone() Feedback {
	f.Answers = append([]Answer(nil), f.Answers...)
	return f
}
