package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same store
// code serves plain calls and InTx units of work.
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgStore struct {
	pool *pgxpool.Pool
	q    pgQuerier
	inTx bool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, q: pool}
}

func (r *PgStore) InTx(ctx context.Context, fn func(s Store) error) error {
	if r.inTx {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin tx", err)
	}
	defer tx.Rollback(ctx)

	txStore := &PgStore{pool: r.pool, q: tx, inTx: true}
	if err := fn(txStore); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit tx", err)
	}
	return nil
}

// Helpers

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, ErrStorageUnavailable)
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Region,
		&d.SpecialityID,
		&d.Capacity,
		&d.Remaining,
		&d.Address,
		&d.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, storageErr("scan doctor", err)
	}

	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Region,
		&p.Exempt,
		&p.Remaining,
		&p.BirthDate,
		&p.Address,
		&p.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, storageErr("scan patient", err)
	}

	return &p, nil
}

func scanService(row pgx.Row) (*MedicalService, error) {
	var s MedicalService
	var minutes int

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Name,
		&minutes,
		&s.Price,
		&s.Description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, storageErr("scan service", err)
	}

	s.Duration = time.Duration(minutes) * time.Minute
	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.ServiceID,
		&a.At,
		&a.Urgent,
		&a.Completed,
		&a.Comment,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, storageErr("scan appointment", err)
	}

	return &a, nil
}

const doctorColumns = "id, region, speciality_id, capacity, remaining, address, phone"
const patientColumns = "id, region, exempt, remaining, birth_date, address, phone"
const appointmentColumns = "id, doctor_id, patient_id, service_id, at, urgent, completed, comment"

// Interface methods

func (r *PgStore) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgStore) GetDoctorForUpdate(ctx context.Context, id int64) (*Doctor, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanDoctor(row)
}

func (r *PgStore) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgStore) GetPatientForUpdate(ctx context.Context, id int64) (*Patient, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanPatient(row)
}

func (r *PgStore) SetDoctorRemaining(ctx context.Context, id int64, remaining int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE doctors
		SET remaining = $2
		WHERE id = $1
	`, id, remaining)
	if err != nil {
		return storageErr("set doctor remaining", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgStore) SetPatientRemaining(ctx context.Context, id int64, remaining int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE patients
		SET remaining = $2
		WHERE id = $1
	`, id, remaining)
	if err != nil {
		return storageErr("set patient remaining", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgStore) GetService(ctx context.Context, id int64) (*MedicalService, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, doctor_id, name, duration_minutes, price, description
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgStore) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO appointments (doctor_id, patient_id, service_id, at, urgent, completed, comment)
		VALUES ($1, $2, $3, $4, $5, false, $6)
		RETURNING `+appointmentColumns+`
	`, a.DoctorID, a.PatientID, a.ServiceID, a.At, a.Urgent, a.Comment)

	return scanAppointment(row)
}

func (r *PgStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgStore) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    patient_id = $3,
		    service_id = $4,
		    at = $5,
		    urgent = $6,
		    comment = $7
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, a.ID, a.DoctorID, a.PatientID, a.ServiceID, a.At, a.Urgent, a.Comment)

	return scanAppointment(row)
}

func (r *PgStore) DeleteAppointment(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM appointments
		WHERE id = $1
	`, id)
	if err != nil {
		return storageErr("delete appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgStore) MarkAppointmentCompleted(ctx context.Context, id int64) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE appointments
		SET completed = true
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id)

	return scanAppointment(row)
}

func (r *PgStore) ListByDoctorAndDate(ctx context.Context, doctorID int64, day time.Time) ([]Appointment, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND at >= $2
		  AND at < $3
		ORDER BY at
	`, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, storageErr("list by doctor and date", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgStore) ListByPatient(ctx context.Context, patientID int64, completed *bool, limit int) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
	`
	args := []any{patientID}

	if completed != nil {
		query += ` AND completed = $2`
		args = append(args, *completed)
	}
	query += fmt.Sprintf(` ORDER BY at DESC LIMIT %d`, limit)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list by patient", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate appointments", err)
	}

	return result, nil
}

func (r *PgStore) CountBookedForDoctor(ctx context.Context, doctorID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE doctor_id = $1
		  AND completed = false
	`, doctorID).Scan(&n)
	if err != nil {
		return 0, storageErr("count booked", err)
	}
	return n, nil
}

func (r *PgStore) ListDoctorIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM doctors ORDER BY id`)
	if err != nil {
		return nil, storageErr("list doctor ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan doctor id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate doctor ids", err)
	}
	return ids, nil
}

func (r *PgStore) InsertEvent(ctx context.Context, ev BookingEvent) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO booking_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return storageErr("insert booking event", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
