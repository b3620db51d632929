// Booking race simulator: fires concurrent patient bookings at the API and
// reports winners vs conflicts per slot. With N workers hammering the same
// open slots, every slot must end with exactly one success.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/auth"
	"github.com/careline/clinic-queue/internal/config"
	"github.com/careline/clinic-queue/internal/db"
)

type simConfig struct {
	APIBaseURL string
	Workers    int
	Duration   time.Duration
	SlotLimit  int
}

type dataPool struct {
	Patients []uuid.UUID
	Slots    []uuid.UUID
	Tokens   map[uuid.UUID]string
}

type metrics struct {
	Total    int64
	Success  int64
	Conflict int64
	Error    int64
}

func (m *metrics) record(status int) {
	atomic.AddInt64(&m.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&m.Success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.Conflict, 1)
	default:
		atomic.AddInt64(&m.Error, 1)
	}
}

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "simulate").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	sim := simConfig{
		APIBaseURL: getEnv("SIM_API_URL", "http://127.0.0.1:"+cfg.HTTPPort),
		Workers:    getEnvInt("SIM_WORKERS", 20),
		Duration:   getEnvDuration("SIM_DURATION", 30*time.Second),
		SlotLimit:  getEnvInt("SIM_SLOT_LIMIT", 200),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	dp, err := loadDataPool(context.Background(), pool, sim.SlotLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}
	if len(dp.Slots) == 0 || len(dp.Patients) == 0 {
		log.Fatal().Msg("no open slots or patients found, run seed first")
	}

	// Mint one patient token per identity so the workers act as real
	// authenticated patients.
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, time.Hour)
	dp.Tokens = make(map[uuid.UUID]string, len(dp.Patients))
	for _, pid := range dp.Patients {
		token, err := tokens.Sign(auth.Principal{ID: pid, Role: auth.RolePatient})
		if err != nil {
			log.Fatal().Err(err).Msg("sign patient token")
		}
		dp.Tokens[pid] = token
	}

	log.Info().
		Int("workers", sim.Workers).
		Int("slots", len(dp.Slots)).
		Int("patients", len(dp.Patients)).
		Dur("duration", sim.Duration).
		Msg("starting booking race")

	var m metrics
	runCtx, stop := context.WithTimeout(context.Background(), sim.Duration)
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < sim.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(runCtx, sim, dp, &m)
		}()
	}
	wg.Wait()

	log.Info().
		Int64("total", m.Total).
		Int64("success", m.Success).
		Int64("conflict", m.Conflict).
		Int64("error", m.Error).
		Msg("booking race finished")

	if m.Success > int64(len(dp.Slots)) {
		log.Error().Msg("more successful bookings than slots, single-winner invariant violated")
		os.Exit(1)
	}
}

func worker(ctx context.Context, sim simConfig, dp *dataPool, m *metrics) {
	client := &http.Client{Timeout: 10 * time.Second}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		slotID := dp.Slots[rand.Intn(len(dp.Slots))]
		patientID := dp.Patients[rand.Intn(len(dp.Patients))]

		body, _ := json.Marshal(map[string]string{"slot_id": slotID.String()})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, sim.APIBaseURL+"/api/v1/bookings", bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+dp.Tokens[patientID])

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.record(0)
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		m.record(resp.StatusCode)
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, slotLimit int) (*dataPool, error) {
	dp := &dataPool{}

	rows, err := pool.Query(ctx, `
		SELECT sl.id
		FROM slots sl
		JOIN schedules sc ON sc.id = sl.schedule_id
		WHERE sl.status = 'AVAILABLE' AND sc.status = 'PUBLISHED'
		LIMIT $1
	`, slotLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Slots = append(dp.Slots, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT 500`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var id uuid.UUID
		if err := prows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Patients = append(dp.Patients, id)
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	return dp, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
