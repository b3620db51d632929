// Package directory owns the reference entities the scheduling core hangs
// off: medical centers (the admin tenants) and their doctors.
package directory

import (
	"time"

	"github.com/google/uuid"
)

type MedicalCenter struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
	Address      *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Doctor struct {
	ID              uuid.UUID
	MedicalCenterID uuid.UUID
	Name            string
	Specialty       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CenterSummary is the public search projection: no credentials, plus a
// doctor count for the listing page.
type CenterSummary struct {
	ID          uuid.UUID
	Name        string
	Phone       *string
	Address     *string
	Email       string
	DoctorCount int
}
