package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.SlotDuration,
		&s.BufferTime,
		&s.TotalSlots,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var patientID *uuid.UUID

	err := row.Scan(
		&s.ID,
		&s.ScheduleID,
		&s.SlotNumber,
		&s.Time,
		&s.Status,
		&patientID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.PatientID = patientID
	return &s, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Mobile,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

const slotDetailColumns = `
	sl.id, sl.schedule_id, sl.slot_number, sl.time, sl.status, sl.patient_id, sl.created_at, sl.updated_at,
	p.id, p.name, p.mobile, p.created_at, p.updated_at,
	sc.id, sc.doctor_id, sc.date, sc.start_time, sc.end_time, sc.slot_duration, sc.buffer_time, sc.total_slots, sc.status, sc.created_at, sc.updated_at,
	d.name, mc.name`

const slotDetailJoins = `
	FROM slots sl
	LEFT JOIN patients p ON p.id = sl.patient_id
	JOIN schedules sc ON sc.id = sl.schedule_id
	JOIN doctors d ON d.id = sc.doctor_id
	JOIN medical_centers mc ON mc.id = d.medical_center_id`

func scanSlotDetail(row pgx.Row) (*SlotDetail, error) {
	var det SlotDetail
	var slotPatientID *uuid.UUID
	var pID *uuid.UUID
	var pName, pMobile *string
	var pCreated, pUpdated *time.Time
	var sc Schedule

	err := row.Scan(
		&det.ID, &det.ScheduleID, &det.SlotNumber, &det.Time, &det.Status, &slotPatientID, &det.CreatedAt, &det.UpdatedAt,
		&pID, &pName, &pMobile, &pCreated, &pUpdated,
		&sc.ID, &sc.DoctorID, &sc.Date, &sc.StartTime, &sc.EndTime, &sc.SlotDuration, &sc.BufferTime, &sc.TotalSlots, &sc.Status, &sc.CreatedAt, &sc.UpdatedAt,
		&det.DoctorName, &det.CenterName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	det.PatientID = slotPatientID
	det.Schedule = &sc
	if pID != nil {
		det.Patient = &Patient{
			ID:        *pID,
			Name:      *pName,
			Mobile:    *pMobile,
			CreatedAt: *pCreated,
			UpdatedAt: *pUpdated,
		}
	}

	return &det, nil
}

func collectSlotDetails(rows pgx.Rows) ([]SlotDetail, error) {
	defer rows.Close()

	var result []SlotDetail
	for rows.Next() {
		det, err := scanSlotDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *det)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Schedules

func (r *PgRepository) CreateScheduleWithSlots(ctx context.Context, s *Schedule, slots []GeneratedSlot) (*Schedule, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create schedule: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()

	row := tx.QueryRow(ctx, `
		INSERT INTO schedules (id, doctor_id, date, start_time, end_time, slot_duration, buffer_time, total_slots, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'DRAFT', now(), now())
		RETURNING id, doctor_id, date, start_time, end_time, slot_duration, buffer_time, total_slots, status, created_at, updated_at
	`, id, s.DoctorID, s.Date, s.StartTime, s.EndTime, s.SlotDuration, s.BufferTime, len(slots))

	created, err := scanSchedule(row)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}

	// Bulk insert the generated slots in the same transaction so a schedule
	// is never observable without its slots.
	batch := &pgx.Batch{}
	for _, gs := range slots {
		batch.Queue(`
			INSERT INTO slots (id, schedule_id, slot_number, time, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'AVAILABLE', now(), now())
		`, uuid.New(), created.ID, gs.SlotNumber, gs.Time)
	}

	br := tx.SendBatch(ctx, batch)
	for range slots {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("insert slot: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("close slot batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create schedule: %w", err)
	}

	return created, nil
}

func (r *PgRepository) GetScheduleByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, start_time, end_time, slot_duration, buffer_time, total_slots, status, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`, id)
	return scanSchedule(row)
}

func (r *PgRepository) ListSchedules(ctx context.Context, centerID uuid.UUID, doctorID *uuid.UUID, day *time.Time) ([]Schedule, error) {
	query := `
		SELECT sc.id, sc.doctor_id, sc.date, sc.start_time, sc.end_time, sc.slot_duration, sc.buffer_time, sc.total_slots, sc.status, sc.created_at, sc.updated_at
		FROM schedules sc
		JOIN doctors d ON d.id = sc.doctor_id
		WHERE d.medical_center_id = $1`
	args := []any{centerID}

	if doctorID != nil {
		args = append(args, *doctorID)
		query += fmt.Sprintf(" AND sc.doctor_id = $%d", len(args))
	}
	if day != nil {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		args = append(args, start, start.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND sc.date >= $%d AND sc.date < $%d", len(args)-1, len(args))
	}
	query += " ORDER BY sc.start_time ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) PublishSchedule(ctx context.Context, id, centerID uuid.UUID) (*Schedule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE schedules sc
		SET status = 'PUBLISHED',
		    updated_at = now()
		FROM doctors d
		WHERE sc.id = $1
		  AND d.id = sc.doctor_id
		  AND d.medical_center_id = $2
		RETURNING sc.id, sc.doctor_id, sc.date, sc.start_time, sc.end_time, sc.slot_duration, sc.buffer_time, sc.total_slots, sc.status, sc.created_at, sc.updated_at
	`, id, centerID)
	return scanSchedule(row)
}

func (r *PgRepository) DeleteSchedule(ctx context.Context, id, centerID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete schedule: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ownership check up front; the deletes below are then plain by id.
	var owned bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM schedules sc
			JOIN doctors d ON d.id = sc.doctor_id
			WHERE sc.id = $1 AND d.medical_center_id = $2
		)
	`, id, centerID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("check schedule ownership: %w", err)
	}
	if !owned {
		return ErrScheduleNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM slots WHERE schedule_id = $1`, id); err != nil {
		return fmt.Errorf("delete slots: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete schedule: %w", err)
	}

	return nil
}

func (r *PgRepository) DoctorBelongsToCenter(ctx context.Context, doctorID, centerID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1 AND medical_center_id = $2)
	`, doctorID, centerID).Scan(&ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Slots

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, schedule_id, slot_number, time, status, patient_id, created_at, updated_at
		FROM slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) GetSlotDetail(ctx context.Context, id uuid.UUID) (*SlotDetail, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+slotDetailColumns+slotDetailJoins+` WHERE sl.id = $1`, id)
	return scanSlotDetail(row)
}

func (r *PgRepository) ListSlotsBySchedule(ctx context.Context, scheduleID, centerID uuid.UUID) ([]SlotDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotDetailColumns+slotDetailJoins+`
		WHERE sl.schedule_id = $1
		  AND mc.id = $2
		ORDER BY sl.slot_number ASC
	`, scheduleID, centerID)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

func (r *PgRepository) ListOpenSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Slot, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	rows, err := r.pool.Query(ctx, `
		SELECT sl.id, sl.schedule_id, sl.slot_number, sl.time, sl.status, sl.patient_id, sl.created_at, sl.updated_at
		FROM slots sl
		JOIN schedules sc ON sc.id = sl.schedule_id
		WHERE sc.doctor_id = $1
		  AND sc.status = 'PUBLISHED'
		  AND sc.date >= $2 AND sc.date < $3
		  AND sl.status = 'AVAILABLE'
		ORDER BY sl.time ASC
	`, doctorID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Transitions

const slotReturning = `RETURNING id, schedule_id, slot_number, time, status, patient_id, created_at, updated_at`

// ReserveSlotAdmin is the conditional write that guarantees at most one
// booking per slot: the status predicate makes concurrent reservations of
// the same row a single-winner race.
func (r *PgRepository) ReserveSlotAdmin(ctx context.Context, slotID, centerID uuid.UUID, status SlotStatus, patientID *uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots sl
		SET status = $3,
		    patient_id = $4,
		    updated_at = now()
		FROM schedules sc, doctors d
		WHERE sl.id = $1
		  AND sl.status = 'AVAILABLE'
		  AND sc.id = sl.schedule_id
		  AND d.id = sc.doctor_id
		  AND d.medical_center_id = $2
		`+slotReturningQualified, slotID, centerID, status, patientID)

	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, r.classifyAdminReserveMiss(ctx, slotID, centerID)
		}
		return nil, err
	}
	return slot, nil
}

func (r *PgRepository) ReserveSlotPatient(ctx context.Context, slotID, patientID uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots sl
		SET status = 'BOOKED',
		    patient_id = $2,
		    updated_at = now()
		FROM schedules sc
		WHERE sl.id = $1
		  AND sl.status = 'AVAILABLE'
		  AND sc.id = sl.schedule_id
		  AND sc.status = 'PUBLISHED'
		`+slotReturningQualified, slotID, patientID)

	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, r.classifyPatientReserveMiss(ctx, slotID)
		}
		return nil, err
	}
	return slot, nil
}

const slotReturningQualified = `RETURNING sl.id, sl.schedule_id, sl.slot_number, sl.time, sl.status, sl.patient_id, sl.created_at, sl.updated_at`

// The classify helpers separate "row held by someone else" from "row not
// visible to this caller" after a conditional update matched nothing. The
// re-check carries the same scope as the failed update: a slot outside the
// caller's view reports not-found, never taken, so a miss leaks nothing
// about other tenants' slots or unpublished schedules.

func (r *PgRepository) classifyAdminReserveMiss(ctx context.Context, slotID, centerID uuid.UUID) error {
	var visible bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM slots sl
			JOIN schedules sc ON sc.id = sl.schedule_id
			JOIN doctors d ON d.id = sc.doctor_id
			WHERE sl.id = $1 AND d.medical_center_id = $2
		)
	`, slotID, centerID).Scan(&visible)
	if err != nil {
		return err
	}
	if !visible {
		return ErrSlotNotFound
	}
	return ErrSlotUnavailable
}

func (r *PgRepository) classifyPatientReserveMiss(ctx context.Context, slotID uuid.UUID) error {
	var visible bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM slots sl
			JOIN schedules sc ON sc.id = sl.schedule_id
			WHERE sl.id = $1 AND sc.status = 'PUBLISHED'
		)
	`, slotID).Scan(&visible)
	if err != nil {
		return err
	}
	if !visible {
		return ErrSlotNotFound
	}
	return ErrSlotUnavailable
}

func (r *PgRepository) ReleaseSlot(ctx context.Context, slotID, centerID uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE slots sl
		SET status = 'AVAILABLE',
		    patient_id = NULL,
		    updated_at = now()
		FROM schedules sc, doctors d
		WHERE sl.id = $1
		  AND sc.id = sl.schedule_id
		  AND d.id = sc.doctor_id
		  AND d.medical_center_id = $2
		`+slotReturningQualified, slotID, centerID)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotStatus(ctx context.Context, slotID, centerID uuid.UUID, status SlotStatus) (*Slot, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the target row and verify ownership inside the transaction.
	var scheduleID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT sl.schedule_id
		FROM slots sl
		JOIN schedules sc ON sc.id = sl.schedule_id
		JOIN doctors d ON d.id = sc.doctor_id
		WHERE sl.id = $1 AND d.medical_center_id = $2
		FOR UPDATE OF sl
	`, slotID, centerID).Scan(&scheduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("load slot for status update: %w", err)
	}

	if status == SlotServing {
		// Demote whatever was being served before promoting the target, so
		// the schedule never commits with two SERVING rows.
		_, err = tx.Exec(ctx, `
			UPDATE slots
			SET status = 'COMPLETED',
			    updated_at = now()
			WHERE schedule_id = $1
			  AND status = 'SERVING'
			  AND id <> $2
		`, scheduleID, slotID)
		if err != nil {
			return nil, fmt.Errorf("demote serving slot: %w", err)
		}
	}

	row := tx.QueryRow(ctx, `
		UPDATE slots
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		`+slotReturning, slotID, status)

	slot, err := scanSlot(row)
	if err != nil {
		return nil, fmt.Errorf("update slot status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	return slot, nil
}

// Queue projection

func (r *PgRepository) CurrentServingToken(ctx context.Context, scheduleID uuid.UUID) (*int, error) {
	var token int
	err := r.pool.QueryRow(ctx, `
		SELECT slot_number
		FROM slots
		WHERE schedule_id = $1 AND status = 'SERVING'
	`, scheduleID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// Bookings

func (r *PgRepository) ListBookingsByCenter(ctx context.Context, centerID uuid.UUID) ([]SlotDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotDetailColumns+slotDetailJoins+`
		WHERE sl.status = 'BOOKED'
		  AND mc.id = $1
		ORDER BY sl.time ASC
	`, centerID)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

func (r *PgRepository) ListBookingsByPatient(ctx context.Context, patientID uuid.UUID) ([]SlotDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotDetailColumns+slotDetailJoins+`
		WHERE sl.patient_id = $1
		  AND sl.status IN ('BOOKED', 'SERVING', 'COMPLETED')
		ORDER BY sl.time DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

// Patients

func (r *PgRepository) UpsertPatientByMobile(ctx context.Context, mobile, name string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, mobile, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (mobile) DO UPDATE
		SET name = COALESCE(NULLIF($2, ''), patients.name),
		    updated_at = now()
		RETURNING id, name, mobile, created_at, updated_at
	`, uuid.New(), name, mobile)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, mobile, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

// Reminder worker

func (r *PgRepository) FindBookedSlotsBetween(ctx context.Context, from, to time.Time) ([]SlotDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotDetailColumns+slotDetailJoins+`
		WHERE sl.status = 'BOOKED'
		  AND sl.time >= $1 AND sl.time <= $2
		ORDER BY sl.time ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, slot_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.SlotID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
