package messaging

import (
	"context"
	"errors"
	"time"
)

// Kind selects which inbox a message lives in: the two inboxes are parallel
// tables, one for doctor-authored messages and one for patient-authored.
type Kind string

const (
	KindDoctor  Kind = "doctor"
	KindPatient Kind = "patient"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrInvalidKind     = errors.New("invalid message type, use 'doctor' or 'patient'")
)

// Message is immutable once submitted except for the acknowledgement flag.
type Message struct {
	ID           int64
	Kind         Kind
	Title        string
	Text         string
	Urgent       bool
	SenderID     int64 // doctor id or patient id, per Kind
	Acknowledged bool
	CreatedAt    time.Time
}

// PendingMessage pairs a message with its sender's display name for the
// leader inbox screens.
type PendingMessage struct {
	Message
	SenderName   string
	SenderRegion string
}

type Repository interface {
	Insert(ctx context.Context, m *Message) (*Message, error)
	// ListPending returns unacknowledged messages of one kind whose sender
	// lives in the given region.
	ListPending(ctx context.Context, kind Kind, region string) ([]PendingMessage, error)
	Acknowledge(ctx context.Context, kind Kind, id int64) error
}
