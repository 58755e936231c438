package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/fitsquad/server/internal/repo"
)

const (
	otpLength          = 6
	otpExpiry          = 5 * time.Minute
	otpMaxAttempts     = 5
	otpMinAttemptDelay = 2 * time.Second
	otpRequestWindow   = 10 * time.Minute
	otpMaxPerWindow    = 3
	devOTP             = "123456"
)

// OTPProvider issues and checks one-time codes for phone verification.
type OTPProvider interface {
	RequestOTP(ctx context.Context, phone, ip, userAgent string) error
	VerifyOTP(ctx context.Context, phone, code string) error
}

// OTPService is the Postgres-backed OTP provider. Only salted hashes of
// codes are stored; the plaintext code leaves the process via the SMS
// gateway only (or not at all in dev mode).
type OTPService struct {
	otpRepo repo.OtpRepo
	salt    string
	devMode bool
}

// NewOTPService creates the provider. In devMode every phone gets the
// fixed code 123456 and nothing is sent.
func NewOTPService(otpRepo repo.OtpRepo, salt string, devMode bool) *OTPService {
	return &OTPService{otpRepo: otpRepo, salt: salt, devMode: devMode}
}

// RequestOTP creates or replaces the active session for the phone.
// At most 3 requests per 10 minutes per phone, enforced in the DB.
func (p *OTPService) RequestOTP(ctx context.Context, phone, ip, userAgent string) error {
	since := time.Now().Add(-otpRequestWindow)
	count, err := p.otpRepo.CountRecentRequests(ctx, phone, since)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if count >= otpMaxPerWindow {
		return fmt.Errorf("rate limit exceeded: max %d OTP requests per %v per phone", otpMaxPerWindow, otpRequestWindow)
	}

	code := devOTP
	if !p.devMode {
		code, err = generateOTPCode()
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
	}

	var requestIP, ua *string
	if ip != "" {
		requestIP = &ip
	}
	if userAgent != "" {
		ua = &userAgent
	}

	hashHex := hashOTPHex(phone, code, p.salt)
	if _, err := p.otpRepo.CreateOrReplaceSession(ctx, phone, hashHex, time.Now().Add(otpExpiry), requestIP, ua); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	// The plaintext code is never logged or returned.
	return nil
}

// VerifyOTP checks the code against the active session: 5-attempt cap,
// minimum 2s between attempts, constant-time hash comparison, and the
// session is consumed on success.
func (p *OTPService) VerifyOTP(ctx context.Context, phone, code string) error {
	session, err := p.otpRepo.GetActiveSessionByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("invalid or expired code")
	}

	if session.LastAttemptAt != nil && time.Since(*session.LastAttemptAt) < otpMinAttemptDelay {
		return fmt.Errorf("too many attempts, try again later")
	}

	attempts, err := p.otpRepo.IncrementAttempt(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	if attempts >= otpMaxAttempts {
		_ = p.otpRepo.MarkConsumed(ctx, session.ID)
		return fmt.Errorf("invalid or expired code")
	}

	provided := hashOTPBytes(phone, code, p.salt)
	if subtle.ConstantTimeCompare(provided, session.OTPHash) != 1 {
		return fmt.Errorf("invalid or expired code")
	}

	if err := p.otpRepo.MarkConsumed(ctx, session.ID); err != nil {
		return fmt.Errorf("consume session: %w", err)
	}
	return nil
}

func generateOTPCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n), nil
}

// hashOTPHex returns SHA-256(phone:code:salt) as hex for DB storage.
func hashOTPHex(phone, code, salt string) string {
	return hex.EncodeToString(hashOTPBytes(phone, code, salt))
}

func hashOTPBytes(phone, code, salt string) []byte {
	sum := sha256.Sum256([]byte(phone + ":" + code + ":" + salt))
	return sum[:]
}
