package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/careline/clinic-queue/internal/directory"
	"github.com/careline/clinic-queue/internal/notify"
	redisclient "github.com/careline/clinic-queue/internal/redis"
	"github.com/careline/clinic-queue/internal/schedule"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPNotRequested    = errors.New("otp not requested or expired")
)

// CenterStore is the slice of the directory repository the auth flows need.
type CenterStore interface {
	CreateMedicalCenter(ctx context.Context, mc *directory.MedicalCenter) (*directory.MedicalCenter, error)
	GetMedicalCenterByEmail(ctx context.Context, email string) (*directory.MedicalCenter, error)
}

// PatientStore resolves or creates the patient identity on OTP verification.
type PatientStore interface {
	UpsertPatientByMobile(ctx context.Context, mobile, name string) (*schedule.Patient, error)
}

type Service struct {
	centers  CenterStore
	patients PatientStore
	otps     redisclient.OTPStore
	tokens   *TokenIssuer
	notifier notify.Notifier
	otpTTL   time.Duration
	log      zerolog.Logger
}

func NewService(centers CenterStore, patients PatientStore, otps redisclient.OTPStore, tokens *TokenIssuer, notifier notify.Notifier, otpTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		centers:  centers,
		patients: patients,
		otps:     otps,
		tokens:   tokens,
		notifier: notifier,
		otpTTL:   otpTTL,
		log:      log,
	}
}

// RegisterAdmin creates a medical center account and returns a signed admin
// token for it.
func (s *Service) RegisterAdmin(ctx context.Context, name, email, password string) (*directory.MedicalCenter, string, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	center, err := s.centers.CreateMedicalCenter(ctx, &directory.MedicalCenter{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Sign(Principal{ID: center.ID, Role: RoleAdmin})
	if err != nil {
		return nil, "", err
	}

	return center, token, nil
}

func (s *Service) LoginAdmin(ctx context.Context, email, password string) (*directory.MedicalCenter, string, error) {
	center, err := s.centers.GetMedicalCenterByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrCenterNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !CheckPassword(center.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(Principal{ID: center.ID, Role: RoleAdmin})
	if err != nil {
		return nil, "", err
	}

	return center, token, nil
}

// RequestOTP issues a fresh 6-digit code for the mobile number and delivers
// it through the notifier. The code lives in the shared expiring store, so
// any instance can verify it.
func (s *Service) RequestOTP(ctx context.Context, mobile string) error {
	code, err := generateOTP(6)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	if err := s.otps.Put(ctx, mobile, code, s.otpTTL); err != nil {
		return err
	}

	msg := fmt.Sprintf("Your OTP for Doctor Appointment System is %s", code)
	if err := s.notifier.SendSMS(ctx, mobile, msg); err != nil {
		s.log.Error().Err(err).Str("mobile", mobile).Msg("send otp sms")
	}

	return nil
}

// VerifyOTP checks the code, creates the Patient on first verification
// (updating the name when one is supplied) and returns a signed patient
// token. The code is consumed whether or not it matches.
func (s *Service) VerifyOTP(ctx context.Context, mobile, code, name string) (*schedule.Patient, string, error) {
	stored, err := s.otps.Consume(ctx, mobile)
	if err != nil {
		if errors.Is(err, redisclient.ErrOTPNotFound) {
			return nil, "", ErrOTPNotRequested
		}
		return nil, "", err
	}

	if stored != code {
		return nil, "", ErrInvalidOTP
	}

	if name == "" {
		name = "Patient"
	}
	patient, err := s.patients.UpsertPatientByMobile(ctx, mobile, name)
	if err != nil {
		return nil, "", fmt.Errorf("upsert patient: %w", err)
	}

	token, err := s.tokens.Sign(Principal{ID: patient.ID, Role: RolePatient, Mobile: patient.Mobile})
	if err != nil {
		return nil, "", err
	}

	return patient, token, nil
}

func generateOTP(length int) (string, error) {
	const digits = "0123456789"

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[n.Int64()]
	}
	return string(code), nil
}
