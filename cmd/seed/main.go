package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/db"
	"github.com/careline/clinic-queue/internal/schedule"
)

// Seeds a demo dataset: medical centers (password "password123"), doctors,
// and a published schedule per doctor for tomorrow.

var log = zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()

func main() {
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	centerIDs, err := seedCenters(context.Background(), pool, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("seed centers")
	}

	doctorIDs, err := seedDoctors(context.Background(), pool, centerIDs, 4)
	if err != nil {
		log.Fatal().Err(err).Msg("seed doctors")
	}

	if err := seedSchedules(context.Background(), pool, doctorIDs); err != nil {
		log.Fatal().Err(err).Msg("seed schedules")
	}

	if err := seedPatients(context.Background(), pool, 200); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}

	log.Info().Msg("seed complete")
}

func seedCenters(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding medical centers")

	hash, err := auth.HashPassword("password123")
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Company() + " Medical Center"
		email := gofakeit.Email()
		phone := gofakeit.Phone()
		address := gofakeit.Street() + ", " + gofakeit.City()

		_, err := tx.Exec(ctx, `
			INSERT INTO medical_centers (id, name, email, password_hash, phone, address, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		`, id, name, email, hash, phone, address)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Info().Msg("medical centers seeded")
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, centerIDs []uuid.UUID, perCenter int) ([]uuid.UUID, error) {
	log.Info().Int("per_center", perCenter).Msg("seeding doctors")

	specialties := []string{
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

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ids []uuid.UUID
	for _, centerID := range centerIDs {
		for i := 0; i < perCenter; i++ {
			id := uuid.New()
			name := "Dr. " + gofakeit.Name()
			spec := specialties[gofakeit.Number(0, len(specialties)-1)]

			_, err := tx.Exec(ctx, `
				INSERT INTO doctors (id, medical_center_id, name, specialty, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, id, centerID, name, spec)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Info().Msg("doctors seeded")
	return ids, nil
}

func seedSchedules(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID) error {
	log.Info().Int("doctors", len(doctorIDs)).Msg("seeding published schedules for tomorrow")

	tomorrow := time.Now().AddDate(0, 0, 1)
	day := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)

	for _, doctorID := range doctorIDs {
		start := day.Add(9 * time.Hour)
		end := day.Add(13 * time.Hour)
		duration := 15
		buffer := 5

		slots, err := schedule.GenerateSlots(start, end, duration, buffer)
		if err != nil {
			return err
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		scheduleID := uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO schedules (id, doctor_id, date, start_time, end_time, slot_duration, buffer_time, total_slots, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'PUBLISHED', now(), now())
		`, scheduleID, doctorID, day, start, end, duration, buffer, len(slots))
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}

		for _, gs := range slots {
			_, err = tx.Exec(ctx, `
				INSERT INTO slots (id, schedule_id, slot_number, time, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'AVAILABLE', now(), now())
			`, uuid.New(), scheduleID, gs.SlotNumber, gs.Time)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Info().Msg("schedules seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		mobile := fmt.Sprintf("07%08d", gofakeit.Number(0, 99999999))

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, name, mobile, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (mobile) DO NOTHING
		`, uuid.New(), gofakeit.Name(), mobile)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Msg("patients seeded")
	return nil
}
