package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitsquad/server/internal/auth"
	"github.com/fitsquad/server/internal/middleware"
	"github.com/fitsquad/server/internal/phone"
	"github.com/fitsquad/server/internal/repo"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	authService  *auth.Service
	validate     *validator.Validate
	log          *zap.Logger
	otpLimiter   *middleware.RateLimiter
	loginLimiter *middleware.RateLimiter
}

// NewAuthHandler creates a new auth handler. IP limits: 10 OTP requests
// and 20 login/register attempts per 10 minutes; the per-phone OTP
// limit lives in the DB.
func NewAuthHandler(authService *auth.Service, v *validator.Validate, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		validate:     v,
		log:          log,
		otpLimiter:   middleware.NewRateLimiter(10*time.Minute, 10),
		loginLimiter: middleware.NewRateLimiter(10*time.Minute, 20),
	}
}

type requestOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
}

type registerRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Name        string `json:"name" validate:"required"`
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name"`
}

// decodeAndValidate decodes the JSON body and runs struct validation.
func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondClassified(w, http.StatusBadRequest, err, "request validation")
		return false
	}
	return true
}

// canonicalPhone normalizes the as-typed number and enforces the e164
// rule before anything downstream sees it.
func (h *AuthHandler) canonicalPhone(w http.ResponseWriter, raw string) (string, bool) {
	e164 := phone.ParseToE164(raw)
	if err := h.validate.Var(e164, "e164"); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid phone number")
		return "", false
	}
	return e164, true
}

// setSessionCookie stores the access token for page navigation.
func setSessionCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(24 * time.Hour / time.Second),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// HandleRequestOTP handles POST /auth/request_otp
func (h *AuthHandler) HandleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var req requestOTPRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	e164, ok := h.canonicalPhone(w, req.PhoneNumber)
	if !ok {
		return
	}

	if !h.otpLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	err := h.authService.RequestVerification(r.Context(), e164, clientIP(r), r.UserAgent())
	if err != nil {
		h.log.Warn("OTP request failed",
			zap.String("phone", phone.Mask(e164)), zap.Error(err))
		if strings.Contains(err.Error(), "rate limit") {
			respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		respondClassified(w, http.StatusBadRequest, err, "phone verification")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "otp_sent"})
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	e164, ok := h.canonicalPhone(w, req.PhoneNumber)
	if !ok {
		return
	}

	if !h.loginLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	user, pair, err := h.authService.Register(r.Context(), e164, req.OTP, req.Password, req.Name)
	if err != nil {
		h.log.Warn("registration failed",
			zap.String("phone", phone.Mask(e164)), zap.Error(err))
		if errors.Is(err, repo.ErrPhoneTaken) {
			respondClassified(w, http.StatusConflict, err, "phone registration")
			return
		}
		respondClassified(w, http.StatusBadRequest, err, "registration")
		return
	}

	setSessionCookie(w, pair.AccessToken)
	respondJSON(w, http.StatusCreated, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User: userResponse{
			ID:          user.ID.String(),
			PhoneNumber: user.PhoneNumber,
			DisplayName: user.DisplayName,
		},
	})
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	e164, ok := h.canonicalPhone(w, req.PhoneNumber)
	if !ok {
		return
	}

	if !h.loginLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	user, pair, err := h.authService.Login(r.Context(), e164, req.Password)
	if err != nil {
		h.log.Warn("login failed",
			zap.String("phone", phone.Mask(e164)), zap.Error(err))
		respondWithError(w, http.StatusUnauthorized, "invalid phone number or password")
		return
	}

	setSessionCookie(w, pair.AccessToken)
	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User: userResponse{
			ID:          user.ID.String(),
			PhoneNumber: user.PhoneNumber,
			DisplayName: user.DisplayName,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// HandleRefresh handles POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	pair, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenReuseDetected) {
			respondWithError(w, http.StatusUnauthorized, "refresh_token_reuse_detected")
			return
		}
		respondWithError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}

	setSessionCookie(w, pair.AccessToken)
	respondJSON(w, http.StatusOK, map[string]string{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "bearer",
	})
}

// HandleLogout handles POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondWithError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}
	clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe handles GET /me (protected). Returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, userResponse{
		ID:          user.ID.String(),
		PhoneNumber: user.PhoneNumber,
		DisplayName: user.DisplayName,
	})
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return r.RemoteAddr
}
