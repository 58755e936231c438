package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitsquad/server/internal/model"
	"github.com/fitsquad/server/internal/phone"
	"github.com/fitsquad/server/internal/repo"
	"github.com/fitsquad/server/internal/validate"
)

const refreshTokenExpiry = 30 * 24 * time.Hour

var (
	// ErrInvalidCredentials signals a wrong phone number or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRefreshTokenReuseDetected signals a rotated token was presented
	// again; all sessions for the user are revoked in response.
	ErrRefreshTokenReuseDetected = errors.New("refresh token reuse detected")
)

// TokenPair is an access token plus its rotating refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service orchestrates registration, login and session rotation.
type Service struct {
	otp         OTPProvider
	jwt         *JWTService
	userRepo    repo.UserRepo
	profileRepo repo.ProfileRepo
	refreshRepo repo.RefreshRepo
}

// NewService creates the auth service.
func NewService(
	otp OTPProvider,
	jwt *JWTService,
	userRepo repo.UserRepo,
	profileRepo repo.ProfileRepo,
	refreshRepo repo.RefreshRepo,
) *Service {
	return &Service{
		otp:         otp,
		jwt:         jwt,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		refreshRepo: refreshRepo,
	}
}

// RequestVerification starts phone verification for registration.
func (s *Service) RequestVerification(ctx context.Context, rawPhone, ip, userAgent string) error {
	e164 := phone.ParseToE164(rawPhone)
	if res := validate.PhoneNumber(e164); !res.Valid {
		return fmt.Errorf("invalid phone number: %s", res.Message)
	}
	return s.otp.RequestOTP(ctx, e164, ip, userAgent)
}

// Register verifies the OTP, creates the account with a bcrypt password
// hash and an empty profile, and issues the first token pair.
func (s *Service) Register(ctx context.Context, rawPhone, code, password, name string) (*model.User, TokenPair, error) {
	e164 := phone.ParseToE164(rawPhone)
	if res := validate.PhoneNumber(e164); !res.Valid {
		return nil, TokenPair{}, fmt.Errorf("invalid phone number: %s", res.Message)
	}
	if res := validate.Password(password); !res.Valid {
		return nil, TokenPair{}, fmt.Errorf("invalid password: %s", res.Message)
	}
	if res := validate.Name(name); !res.Valid {
		return nil, TokenPair{}, fmt.Errorf("invalid name: %s", res.Message)
	}

	if err := s.otp.VerifyOTP(ctx, e164, code); err != nil {
		return nil, TokenPair{}, fmt.Errorf("phone verification failed: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	user, err := s.userRepo.Create(ctx, e164, hash, name)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.profileRepo.EnsureExists(ctx, user.ID); err != nil {
		return nil, TokenPair{}, fmt.Errorf("create profile: %w", err)
	}

	pair, err := s.issueTokens(ctx, &user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &user, pair, nil
}

// Login authenticates phone + password and issues a token pair.
func (s *Service) Login(ctx context.Context, rawPhone, password string) (*model.User, TokenPair, error) {
	e164 := phone.ParseToE164(rawPhone)
	user, err := s.userRepo.GetByPhone(ctx, e164)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, &user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return &user, pair, nil
}

// RefreshTokens rotates the refresh token and issues a new access
// token. Presenting an already-rotated token revokes every session for
// that user.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := HashRefreshToken(refreshToken)

	session, err := s.refreshRepo.FindByTokenHash(ctx, hash)
	if err != nil {
		// Reuse detection: a revoked-and-replaced session means the
		// token was already rotated once.
		if old, findErr := s.refreshRepo.FindByTokenHashIncludeRevoked(ctx, hash); findErr == nil && old.ReplacedBy != nil {
			_ = s.refreshRepo.RevokeAllForUser(ctx, old.UserID)
			return TokenPair{}, ErrRefreshTokenReuseDetected
		}
		return TokenPair{}, fmt.Errorf("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID.String())
	if err != nil {
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	newToken, newHash, err := GenerateRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	newID, err := s.refreshRepo.Create(ctx, user.ID, newHash, time.Now().Add(refreshTokenExpiry))
	if err != nil {
		return TokenPair{}, fmt.Errorf("store refresh session: %w", err)
	}
	if err := s.refreshRepo.RevokeAndSetReplacedBy(ctx, session.ID, newID); err != nil {
		return TokenPair{}, fmt.Errorf("rotate refresh session: %w", err)
	}

	accessToken, err := s.jwt.SignAccessToken(user.ID, user.PhoneNumber)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: newToken}, nil
}

// Logout revokes the refresh session for the presented token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.refreshRepo.FindByTokenHash(ctx, HashRefreshToken(refreshToken))
	if err != nil {
		return fmt.Errorf("invalid or expired refresh token")
	}
	return s.refreshRepo.Revoke(ctx, session.ID)
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (TokenPair, error) {
	accessToken, err := s.jwt.SignAccessToken(user.ID, user.PhoneNumber)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, refreshHash, err := GenerateRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}
	if _, err := s.refreshRepo.Create(ctx, user.ID, refreshHash, time.Now().Add(refreshTokenExpiry)); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh session: %w", err)
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
