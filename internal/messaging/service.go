package messaging

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "messaging").Logger(),
	}
}

// Submit files a message into the sender's inbox. The sender id comes from
// the caller identity, never from the payload.
func (s *Service) Submit(ctx context.Context, kind Kind, senderID int64, title, text string, urgent bool) (*Message, error) {
	if _, err := table(kind); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "(no subject)"
	}

	msg, err := s.repo.Insert(ctx, &Message{
		Kind:     kind,
		Title:    title,
		Text:     text,
		Urgent:   urgent,
		SenderID: senderID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("kind", string(kind)).Int64("sender_id", senderID).Bool("urgent", urgent).Msg("message submitted")
	return msg, nil
}

// Pending lists a region's unacknowledged messages of one kind, newest
// first. Leaders only see senders from their own region.
func (s *Service) Pending(ctx context.Context, kind Kind, region string) ([]PendingMessage, error) {
	return s.repo.ListPending(ctx, kind, region)
}

// Acknowledge marks one message as handled.
func (s *Service) Acknowledge(ctx context.Context, kind Kind, id int64) error {
	return s.repo.Acknowledge(ctx, kind, id)
}
