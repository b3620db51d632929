package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrCenterNotFound     = errors.New("medical center not found")
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDoctorHasSchedules = errors.New("doctor still has schedules")
)

type Repository interface {
	CreateMedicalCenter(ctx context.Context, mc *MedicalCenter) (*MedicalCenter, error)
	GetMedicalCenterByID(ctx context.Context, id uuid.UUID) (*MedicalCenter, error)
	GetMedicalCenterByEmail(ctx context.Context, email string) (*MedicalCenter, error)
	SearchCenters(ctx context.Context, query string) ([]CenterSummary, error)

	CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctorsByCenter(ctx context.Context, centerID uuid.UUID) ([]Doctor, error)
	DeleteDoctor(ctx context.Context, id, centerID uuid.UUID) error
	CountBookedSlotsForDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
}
