package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memRepo struct {
	messages []Message
	nextID   int64
	regions  map[int64]string // sender id to region, per test setup
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, regions: make(map[int64]string)}
}

func (r *memRepo) Insert(ctx context.Context, m *Message) (*Message, error) {
	created := *m
	created.ID = r.nextID
	r.nextID++
	created.CreatedAt = time.Now()
	r.messages = append(r.messages, created)
	cp := created
	return &cp, nil
}

func (r *memRepo) ListPending(ctx context.Context, kind Kind, region string) ([]PendingMessage, error) {
	var out []PendingMessage
	for _, m := range r.messages {
		if m.Kind != kind || m.Acknowledged {
			continue
		}
		if r.regions[m.SenderID] != region {
			continue
		}
		out = append(out, PendingMessage{Message: m, SenderRegion: region})
	}
	return out, nil
}

func (r *memRepo) Acknowledge(ctx context.Context, kind Kind, id int64) error {
	for i, m := range r.messages {
		if m.Kind == kind && m.ID == id {
			r.messages[i].Acknowledged = true
			return nil
		}
	}
	return ErrMessageNotFound
}

func TestSubmitDefaultsEmptyTitle(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, zerolog.Nop())

	msg, err := svc.Submit(context.Background(), KindDoctor, 1, "   ", "need more vaccine stock", true)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if msg.Title != "(no subject)" {
		t.Errorf("title = %q, want default subject", msg.Title)
	}
	if !msg.Urgent {
		t.Error("urgent flag lost")
	}
}

func TestSubmitRejectsUnknownKind(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())

	if _, err := svc.Submit(context.Background(), Kind("leader"), 1, "x", "y", false); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("err = %v, want ErrInvalidKind", err)
	}
}

func TestPendingFiltersByRegionAndAck(t *testing.T) {
	repo := newMemRepo()
	repo.regions[1] = "Algiers"
	repo.regions[2] = "Oran"
	svc := NewService(repo, zerolog.Nop())

	first, err := svc.Submit(context.Background(), KindPatient, 1, "renewal", "prescription ran out", false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), KindPatient, 2, "other region", "", false); err != nil {
		t.Fatalf("submit: %v", err)
	}

	pending, err := svc.Pending(context.Background(), KindPatient, "Algiers")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("pending = %d messages, want only the Algiers one", len(pending))
	}

	if err := svc.Acknowledge(context.Background(), KindPatient, first.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	pending, err = svc.Pending(context.Background(), KindPatient, "Algiers")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Error("acknowledged message still listed as pending")
	}
}

func TestAcknowledgeUnknownMessage(t *testing.T) {
	svc := NewService(newMemRepo(), zerolog.Nop())

	if err := svc.Acknowledge(context.Background(), KindDoctor, 99); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("err = %v, want ErrMessageNotFound", err)
	}
}
