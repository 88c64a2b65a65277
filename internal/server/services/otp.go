package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/logging"
	"github.com/agropath/farmauth/internal/server/repositories/otp"
	"golang.org/x/crypto/bcrypt"
)

// Sender delivers a one-time code to a phone number, typically over SMS.
type Sender interface {
	Send(ctx context.Context, phone string, code string) error
}

// LogSender writes codes to the log instead of sending them. Used in
// development and tests where no SMS gateway is configured.
type LogSender struct {
	Logger logging.Logger
}

func (s *LogSender) Send(ctx context.Context, phone string, code string) error {
	s.Logger.Info(ctx, "otp code issued", "phone", phone, "code", code)
	return nil
}

// OtpService issues and verifies one-time login codes. Only a bcrypt
// hash of the code is stored; the plaintext exists just long enough to
// hand to the Sender.
type OtpService struct {
	codes    otp.Repository
	sender   Sender
	logger   logging.Logger
	validity time.Duration
}

// NewOtpService constructs an OtpService.
func NewOtpService(codes otp.Repository, sender Sender, l logging.Logger, validity time.Duration) *OtpService {
	return &OtpService{
		codes:    codes,
		sender:   sender,
		logger:   l.With("module", "otp"),
		validity: validity,
	}
}

// GenerateAndSend creates a fresh code for the phone, stores its hash
// with a TTL and hands the plaintext to the sender. A second call for
// the same phone replaces the pending code.
func (s *OtpService) GenerateAndSend(ctx context.Context, phone string) error {
	code, err := common.MakeRandDigits(common.OtpCodeLength)
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing code: %w", err)
	}

	if err := s.codes.Set(ctx, phone, string(hash), s.validity); err != nil {
		return fmt.Errorf("error storing code: %w", err)
	}

	if err := s.sender.Send(ctx, phone, code); err != nil {
		return fmt.Errorf("error sending code: %w", err)
	}

	return nil
}

// VerifyOtp checks the submitted code against the pending hash. On
// success the code is consumed and cannot be used again. A missing or
// expired code yields common.ErrOtpNotFound, a wrong code
// common.ErrOtpInvalid.
func (s *OtpService) VerifyOtp(ctx context.Context, phone string, code string) error {
	hash, err := s.codes.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, common.ErrOtpNotFound) {
			return common.ErrOtpNotFound
		}
		return fmt.Errorf("error loading code: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return common.ErrOtpInvalid
	}

	if err := s.codes.Delete(ctx, phone); err != nil {
		return fmt.Errorf("error consuming code: %w", err)
	}

	return nil
}
