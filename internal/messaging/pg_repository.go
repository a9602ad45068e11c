package messaging

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func table(kind Kind) (string, error) {
	switch kind {
	case KindDoctor:
		return "doctor_messages", nil
	case KindPatient:
		return "patient_messages", nil
	default:
		return "", ErrInvalidKind
	}
}

// senderJoin maps a kind to the profile table carrying the sender's region.
func senderJoin(kind Kind) (profileTable, role string) {
	if kind == KindDoctor {
		return "doctors", "doctor"
	}
	return "patients", "patient"
}

func (r *PgRepository) Insert(ctx context.Context, m *Message) (*Message, error) {
	tbl, err := table(m.Kind)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO `+tbl+` (title, text, urgent, sender_id, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, false, now())
		RETURNING id, title, text, urgent, sender_id, acknowledged, created_at
	`, m.Title, m.Text, m.Urgent, m.SenderID)

	out := Message{Kind: m.Kind}
	err = row.Scan(&out.ID, &out.Title, &out.Text, &out.Urgent, &out.SenderID, &out.Acknowledged, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert %s message: %w", m.Kind, err)
	}
	return &out, nil
}

func (r *PgRepository) ListPending(ctx context.Context, kind Kind, region string) ([]PendingMessage, error) {
	tbl, err := table(kind)
	if err != nil {
		return nil, err
	}
	profile, role := senderJoin(kind)

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.title, m.text, m.urgent, m.sender_id, m.acknowledged, m.created_at,
		       COALESCE(u.username, 'unknown'), p.region
		FROM `+tbl+` m
		JOIN `+profile+` p ON p.id = m.sender_id
		LEFT JOIN users u ON u.role = '`+role+`' AND u.role_id = m.sender_id
		WHERE m.acknowledged = false
		  AND p.region = $1
		ORDER BY m.created_at DESC
	`, region)
	if err != nil {
		return nil, fmt.Errorf("list pending %s messages: %w", kind, err)
	}
	defer rows.Close()

	var out []PendingMessage
	for rows.Next() {
		pm := PendingMessage{Message: Message{Kind: kind}}
		err := rows.Scan(
			&pm.ID, &pm.Title, &pm.Text, &pm.Urgent, &pm.SenderID, &pm.Acknowledged, &pm.CreatedAt,
			&pm.SenderName, &pm.SenderRegion,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, pm)
	}
	return out, rows.Err()
}

func (r *PgRepository) Acknowledge(ctx context.Context, kind Kind, id int64) error {
	tbl, err := table(kind)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE `+tbl+`
		SET acknowledged = true
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("acknowledge %s message: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}
