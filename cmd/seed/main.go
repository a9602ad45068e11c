package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/wellnest/clinic-backend/internal/db"
)

var regions = []string{
	"Algiers",
	"Oran",
	"Constantine",
	"Annaba",
	"Blida",
	"Setif",
	"Tlemcen",
	"Batna",
}

var specialities = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	// One hash per role keeps seeding fast; bcrypt per row is too slow
	// at patient volume.
	doctorHash := mustHash("Doc@wellnest")
	patientHash := mustHash("Pat@wellnest")
	leaderHash := mustHash("Lead@wellnest")

	specIDs, err := seedSpecialities(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed specialities: %v", err)
	}
	if err := seedLeaders(context.Background(), pool, leaderHash); err != nil {
		log.Fatalf("seed leaders: %v", err)
	}
	doctorIDs, err := seedDoctors(context.Background(), pool, specIDs, doctorHash, 40)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedServices(context.Background(), pool, doctorIDs); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedPatients(context.Background(), pool, patientHash, 800); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

func seedSpecialities(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	log.Printf("seeding %d specialities", len(specialities))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, 0, len(specialities))
	for _, name := range specialities {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO specialities (name) VALUES ($1) RETURNING id
		`, name).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("specialities seeded")
	return ids, nil
}

func seedLeaders(ctx context.Context, pool *pgxpool.Pool, passwordHash string) error {
	log.Printf("seeding %d leaders", len(regions))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, region := range regions {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO leaders (region, active) VALUES ($1, TRUE) RETURNING id
		`, region).Scan(&id)
		if err != nil {
			return err
		}

		username := gofakeit.Username()
		_, err = tx.Exec(ctx, `
			INSERT INTO users (username, email, first_name, last_name, role, role_id, password_hash, created_at)
			VALUES ($1, $2, $3, $4, 'leader', $5, $6, now())
		`, username, gofakeit.Email(), gofakeit.FirstName(), gofakeit.LastName(), id, passwordHash)
		if err != nil {
			return err
		}
		if i == 0 {
			log.Printf("sample leader login: %s / Lead@wellnest", username)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("leaders seeded")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, specIDs []int64, passwordHash string, count int) ([]int64, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		region := regions[gofakeit.Number(0, len(regions)-1)]
		spec := specIDs[gofakeit.Number(0, len(specIDs)-1)]
		capacity := gofakeit.Number(5, 20)

		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO doctors (region, speciality_id, capacity, remaining, address, phone)
			VALUES ($1, $2, $3, $3, $4, $5)
			RETURNING id
		`, region, spec, capacity, gofakeit.Street(), gofakeit.Phone()).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)

		username := gofakeit.Username()
		_, err = tx.Exec(ctx, `
			INSERT INTO users (username, email, first_name, last_name, role, role_id, password_hash, created_at)
			VALUES ($1, $2, $3, $4, 'doctor', $5, $6, now())
		`, username, gofakeit.Email(), gofakeit.FirstName(), gofakeit.LastName(), id, passwordHash)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			log.Printf("sample doctor login: %s / Doc@wellnest", username)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool, doctorIDs []int64) error {
	log.Printf("seeding services for %d doctors", len(doctorIDs))

	durations := []int{15, 20, 30, 45}
	names := []string{
		"Consultation",
		"Follow-up",
		"Checkup",
		"Screening",
		"Minor procedure",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, doctorID := range doctorIDs {
		n := gofakeit.Number(2, 4)
		for i := 0; i < n; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO services (doctor_id, name, duration_minutes, price, description)
				VALUES ($1, $2, $3, $4, $5)
			`, doctorID,
				names[gofakeit.Number(0, len(names)-1)],
				durations[gofakeit.Number(0, len(durations)-1)],
				gofakeit.Number(1000, 8000),
				gofakeit.Sentence(8))
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("services seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 200

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			region := regions[gofakeit.Number(0, len(regions)-1)]
			exempt := gofakeit.Number(0, 9) == 0
			birth := gofakeit.DateRange(
				time.Date(1945, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2008, 12, 31, 0, 0, 0, 0, time.UTC),
			)

			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO patients (region, exempt, remaining, birth_date, address, phone, company_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
			`, region, exempt, gofakeit.Number(1, 4), birth,
				gofakeit.Street(), gofakeit.Phone(), gofakeit.Number(1000, 9999)).Scan(&id)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO users (username, email, first_name, last_name, role, role_id, password_hash, created_at)
				VALUES ($1, $2, $3, $4, 'patient', $5, $6, now())
			`, gofakeit.Username(), gofakeit.Email(), gofakeit.FirstName(), gofakeit.LastName(), id, passwordHash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients %d-%d seeded", offset, end)
	}

	log.Println("patients seeded")
	return nil
}
