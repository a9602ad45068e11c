package directory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wellnest/clinic-backend/internal/booking"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const doctorAccountColumns = `
	d.id, d.region, d.speciality_id, d.capacity, d.remaining, d.address, d.phone,
	COALESCE(u.username, ''), COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.email, '')`

const patientAccountColumns = `
	p.id, p.region, p.exempt, p.remaining, p.birth_date, p.address, p.phone,
	COALESCE(u.username, ''), COALESCE(u.first_name, ''), COALESCE(u.last_name, ''), COALESCE(u.email, '')`

func scanDoctorAccount(row pgx.Row) (*DoctorAccount, error) {
	var d DoctorAccount
	err := row.Scan(
		&d.ID, &d.Region, &d.SpecialityID, &d.Capacity, &d.Remaining, &d.Address, &d.Phone,
		&d.Username, &d.FirstName, &d.LastName, &d.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatientAccount(row pgx.Row) (*PatientAccount, error) {
	var p PatientAccount
	err := row.Scan(
		&p.ID, &p.Region, &p.Exempt, &p.Remaining, &p.BirthDate, &p.Address, &p.Phone,
		&p.Username, &p.FirstName, &p.LastName, &p.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, booking.ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) ListSpecialities(ctx context.Context) ([]Speciality, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM specialities ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Speciality
	for rows.Next() {
		var s Speciality
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgRepository) DoctorsBySpeciality(ctx context.Context, specialityID int64) ([]DoctorAccount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorAccountColumns+`
		FROM doctors d
		LEFT JOIN users u ON u.role = 'doctor' AND u.role_id = d.id
		WHERE d.speciality_id = $1
		ORDER BY d.id
	`, specialityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctorAccounts(rows)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]DoctorAccount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorAccountColumns+`
		FROM doctors d
		LEFT JOIN users u ON u.role = 'doctor' AND u.role_id = d.id
		ORDER BY d.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctorAccounts(rows)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]PatientAccount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientAccountColumns+`
		FROM patients p
		LEFT JOIN users u ON u.role = 'patient' AND u.role_id = p.id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPatientAccounts(rows)
}

func (r *PgRepository) DoctorAccountByID(ctx context.Context, id int64) (*DoctorAccount, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+doctorAccountColumns+`
		FROM doctors d
		LEFT JOIN users u ON u.role = 'doctor' AND u.role_id = d.id
		WHERE d.id = $1
	`, id)
	return scanDoctorAccount(row)
}

func (r *PgRepository) PatientAccountByID(ctx context.Context, id int64) (*PatientAccount, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientAccountColumns+`
		FROM patients p
		LEFT JOIN users u ON u.role = 'patient' AND u.role_id = p.id
		WHERE p.id = $1
	`, id)
	return scanPatientAccount(row)
}

func (r *PgRepository) GetLeader(ctx context.Context, id int64) (*Leader, error) {
	var l Leader
	err := r.pool.QueryRow(ctx, `
		SELECT id, region, active
		FROM leaders
		WHERE id = $1
	`, id).Scan(&l.ID, &l.Region, &l.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeaderNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *PgRepository) ServicesByDoctor(ctx context.Context, doctorID int64) ([]booking.MedicalService, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, name, duration_minutes, price, description
		FROM services
		WHERE doctor_id = $1
		ORDER BY id
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []booking.MedicalService
	for rows.Next() {
		var s booking.MedicalService
		var minutes int
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.Name, &minutes, &s.Price, &s.Description); err != nil {
			return nil, err
		}
		s.Duration = time.Duration(minutes) * time.Minute
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgRepository) PatientsByRegion(ctx context.Context, region string) ([]PatientAccount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+patientAccountColumns+`
		FROM patients p
		LEFT JOIN users u ON u.role = 'patient' AND u.role_id = p.id
		WHERE p.region = $1
		ORDER BY p.id
	`, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPatientAccounts(rows)
}

func (r *PgRepository) LastVisit(ctx context.Context, patientID, doctorID int64) (*time.Time, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT at
		FROM appointments
		WHERE patient_id = $1 AND doctor_id = $2
		ORDER BY at DESC
		LIMIT 1
	`, patientID, doctorID).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &at, nil
}

func (r *PgRepository) Counts(ctx context.Context) (OverviewCounts, error) {
	var c OverviewCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM patients),
			(SELECT count(*) FROM doctors),
			(SELECT count(*) FROM appointments),
			(SELECT count(*) FROM doctor_messages),
			(SELECT count(*) FROM patient_messages)
	`).Scan(&c.Patients, &c.Doctors, &c.Appointments, &c.DoctorMessages, &c.PatientMessages)
	if err != nil {
		return OverviewCounts{}, err
	}
	return c, nil
}

func (r *PgRepository) AppointmentsOn(ctx context.Context, day time.Time) ([]OverviewRow, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.pool.Query(ctx, `
		SELECT
			COALESCE(pu.username, 'unknown'),
			COALESCE(du.username, 'unknown'),
			a.at,
			COALESCE(s.name, 'n/a'),
			a.completed
		FROM appointments a
		LEFT JOIN users pu ON pu.role = 'patient' AND pu.role_id = a.patient_id
		LEFT JOIN users du ON du.role = 'doctor' AND du.role_id = a.doctor_id
		LEFT JOIN services s ON s.id = a.service_id
		WHERE a.at >= $1 AND a.at < $2
		ORDER BY a.at
	`, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverviewRow
	for rows.Next() {
		var row OverviewRow
		if err := rows.Scan(&row.PatientName, &row.DoctorName, &row.At, &row.ServiceName, &row.Completed); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func collectDoctorAccounts(rows pgx.Rows) ([]DoctorAccount, error) {
	var out []DoctorAccount
	for rows.Next() {
		d, err := scanDoctorAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func collectPatientAccounts(rows pgx.Rows) ([]PatientAccount, error) {
	var out []PatientAccount
	for rows.Next() {
		p, err := scanPatientAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
