package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanCenter(row pgx.Row) (*MedicalCenter, error) {
	var mc MedicalCenter
	var phone, address *string

	err := row.Scan(
		&mc.ID,
		&mc.Name,
		&mc.Email,
		&mc.PasswordHash,
		&phone,
		&address,
		&mc.CreatedAt,
		&mc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCenterNotFound
		}
		return nil, err
	}

	mc.Phone = phone
	mc.Address = address
	return &mc, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.MedicalCenterID,
		&d.Name,
		&specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

func (r *PgRepository) CreateMedicalCenter(ctx context.Context, mc *MedicalCenter) (*MedicalCenter, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO medical_centers (id, name, email, password_hash, phone, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, email, password_hash, phone, address, created_at, updated_at
	`, uuid.New(), mc.Name, mc.Email, mc.PasswordHash, mc.Phone, mc.Address)

	created, err := scanCenter(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert medical center: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetMedicalCenterByID(ctx context.Context, id uuid.UUID) (*MedicalCenter, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, phone, address, created_at, updated_at
		FROM medical_centers
		WHERE id = $1
	`, id)
	return scanCenter(row)
}

func (r *PgRepository) GetMedicalCenterByEmail(ctx context.Context, email string) (*MedicalCenter, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, phone, address, created_at, updated_at
		FROM medical_centers
		WHERE email = $1
	`, email)
	return scanCenter(row)
}

func (r *PgRepository) SearchCenters(ctx context.Context, query string) ([]CenterSummary, error) {
	sql := `
		SELECT mc.id, mc.name, mc.phone, mc.address, mc.email,
		       (SELECT count(*) FROM doctors d WHERE d.medical_center_id = mc.id)
		FROM medical_centers mc`
	args := []any{}

	if query != "" {
		args = append(args, "%"+query+"%")
		sql += ` WHERE mc.name ILIKE $1 OR mc.address ILIKE $1`
	}
	sql += ` ORDER BY mc.name ASC`

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CenterSummary
	for rows.Next() {
		var cs CenterSummary
		if err := rows.Scan(&cs.ID, &cs.Name, &cs.Phone, &cs.Address, &cs.Email, &cs.DoctorCount); err != nil {
			return nil, err
		}
		result = append(result, cs)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, medical_center_id, name, specialty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, medical_center_id, name, specialty, created_at, updated_at
	`, uuid.New(), d.MedicalCenterID, d.Name, d.Specialty)
	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, medical_center_id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorsByCenter(ctx context.Context, centerID uuid.UUID) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, medical_center_id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE medical_center_id = $1
		ORDER BY name ASC
	`, centerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteDoctor(ctx context.Context, id, centerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM doctors
		WHERE id = $1 AND medical_center_id = $2
	`, id, centerID)
	if err != nil {
		// The schedules FK restricts the delete while any schedule row still
		// points at the doctor, booked or not.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrDoctorHasSchedules
		}
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *PgRepository) CountBookedSlotsForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM slots sl
		JOIN schedules sc ON sc.id = sl.schedule_id
		WHERE sc.doctor_id = $1
		  AND sl.status = 'BOOKED'
	`, doctorID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
