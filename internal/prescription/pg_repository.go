package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, p *Prescription) (*Prescription, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (appointment_id, description, file)
		VALUES ($1, $2, $3)
		RETURNING id, appointment_id, description, file
	`, p.AppointmentID, p.Description, p.File)

	var out Prescription
	if err := row.Scan(&out.ID, &out.AppointmentID, &out.Description, &out.File); err != nil {
		return nil, fmt.Errorf("insert prescription: %w", err)
	}
	return &out, nil
}

func (r *PgRepository) ListByAppointment(ctx context.Context, appointmentID int64) ([]Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, description, file
		FROM prescriptions
		WHERE appointment_id = $1
		ORDER BY id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Prescription
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.ID, &p.AppointmentID, &p.Description, &p.File); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PgRepository) ListForPatient(ctx context.Context, patientID int64) ([]PatientEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.at, COALESCE(u.username, 'unknown')
		FROM appointments a
		LEFT JOIN users u ON u.role = 'doctor' AND u.role_id = a.doctor_id
		WHERE a.patient_id = $1
		  AND EXISTS (SELECT 1 FROM prescriptions pr WHERE pr.appointment_id = a.id)
		ORDER BY a.at DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type apptRow struct {
		id         int64
		at         time.Time
		doctorName string
	}
	var appts []apptRow
	for rows.Next() {
		var a apptRow
		if err := rows.Scan(&a.id, &a.at, &a.doctorName); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]PatientEntry, 0, len(appts))
	for _, a := range appts {
		list, err := r.ListByAppointment(ctx, a.id)
		if err != nil {
			return nil, err
		}
		out = append(out, PatientEntry{
			Prescriptions: list,
			DoctorName:    a.doctorName,
			At:            a.at,
		})
	}
	return out, nil
}
