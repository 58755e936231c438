package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitsquad/server/internal/auth"
	"github.com/fitsquad/server/internal/config"
	"github.com/fitsquad/server/internal/db"
	apihttp "github.com/fitsquad/server/internal/http"
	"github.com/fitsquad/server/internal/http/handlers"
	"github.com/fitsquad/server/internal/location"
	"github.com/fitsquad/server/internal/repo"
)

// devOTP is the fixed code issued when DEV_MODE=true.
const devOTP = "123456"

func TestMain(m *testing.M) {
	// Set env if unset. Do NOT set DATABASE_URL; integration tests skip if missing.
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test-jwt-secret-at-least-32-characters-long")
	}
	if os.Getenv("OTP_SALT") == "" {
		os.Setenv("OTP_SALT", "test-otp-salt")
	}
	if os.Getenv("DEV_MODE") == "" {
		os.Setenv("DEV_MODE", "true")
	}

	code := m.Run()
	os.Exit(code)
}

// testServer holds the server and DB for integration tests
type testServer struct {
	Server *httptest.Server
	DB     *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "config load must succeed for integration test")

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { database.Close() })

	err = RunMigrations(database)
	require.NoError(t, err, "migrations must run successfully")

	log := zap.NewNop()

	userRepo := repo.NewUserRepo(database)
	profileRepo := repo.NewProfileRepo(database)
	otpRepo := repo.NewOtpRepo(database)
	refreshRepo := repo.NewRefreshRepo(database)
	workoutRepo := repo.NewWorkoutRepo(database)
	friendRepo := repo.NewFriendRepo(database)

	otpService := auth.NewOTPService(otpRepo, cfg.OTPSalt, cfg.DevMode)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewService(otpService, jwtService, userRepo, profileRepo, refreshRepo)

	store, err := location.NewFileStore(t.TempDir())
	require.NoError(t, err)
	geocoder := location.NewGeocoder(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent)
	locationService := location.NewService(geocoder, location.NewCache(store), log)

	v := handlers.NewValidator()
	h := apihttp.Handlers{
		Auth:     handlers.NewAuthHandler(authService, v, log),
		Profile:  handlers.NewProfileHandler(profileRepo, log),
		Workout:  handlers.NewWorkoutHandler(workoutRepo, friendRepo, log),
		Location: handlers.NewLocationHandler(locationService, log),
	}

	router := apihttp.NewRouter(h, jwtService, userRepo)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{Server: server, DB: database}
}

func (s *testServer) BaseURL() string { return s.Server.URL }

func (s *testServer) Truncate(t *testing.T) {
	t.Helper()
	require.NoError(t, TruncateAll(context.Background(), s.DB), "truncate tables")
}

// tokenResponse matches POST /auth/register and /auth/login responses
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	User         struct {
		ID          string `json:"id"`
		PhoneNumber string `json:"phone_number"`
		DisplayName string `json:"display_name"`
	} `json:"user"`
}

// refreshResponse matches POST /auth/refresh response
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// errorResponse matches error JSON body
type errorResponse struct {
	Error string `json:"error"`
}

// register walks the full request_otp + register flow for the phone.
func register(t *testing.T, client *http.Client, baseURL, phone, password, name string) tokenResponse {
	t.Helper()

	reqBytes, _ := json.Marshal(map[string]string{"phone_number": phone})
	respReq, err := client.Post(baseURL+"/auth/request_otp", "application/json", bytes.NewReader(reqBytes))
	require.NoError(t, err)
	reqBody := readBody(respReq)
	respReq.Body.Close()
	require.Equal(t, http.StatusOK, respReq.StatusCode, "request_otp must return 200; body: %s", reqBody)

	regBytes, _ := json.Marshal(map[string]string{
		"phone_number": phone,
		"otp":          devOTP,
		"password":     password,
		"name":         name,
	})
	respReg, err := client.Post(baseURL+"/auth/register", "application/json", bytes.NewReader(regBytes))
	require.NoError(t, err)
	regBody := readBody(respReg)
	respReg.Body.Close()
	require.Equal(t, http.StatusCreated, respReg.StatusCode, "register must return 201; body: %s", regBody)

	var res tokenResponse
	require.NoError(t, json.Unmarshal([]byte(regBody), &res))
	return res
}

func TestAuthIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	baseURL := ts.BaseURL()
	client := ts.Server.Client()

	t.Run("A_HealthCheck", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, "GET /health must return 200")
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("B_Register", func(t *testing.T) {
		ts.Truncate(t)
		res := register(t, client, baseURL, "+15551234567", "passw0rd123", "Alex Morgan")
		assert.NotEmpty(t, res.AccessToken, "access_token must be present")
		assert.NotEmpty(t, res.RefreshToken, "refresh_token must be present")
		assert.Equal(t, "bearer", res.TokenType)
		assert.Equal(t, "+15551234567", res.User.PhoneNumber)
		assert.Equal(t, "Alex Morgan", res.User.DisplayName)
	})

	t.Run("B2_Register_DuplicatePhone", func(t *testing.T) {
		ts.Truncate(t)
		register(t, client, baseURL, "+15551234567", "passw0rd123", "Alex Morgan")

		reqBytes, _ := json.Marshal(map[string]string{"phone_number": "+15551234567"})
		respReq, err := client.Post(baseURL+"/auth/request_otp", "application/json", bytes.NewReader(reqBytes))
		require.NoError(t, err)
		respReq.Body.Close()
		require.Equal(t, http.StatusOK, respReq.StatusCode)

		regBytes, _ := json.Marshal(map[string]string{
			"phone_number": "+15551234567",
			"otp":          devOTP,
			"password":     "passw0rd123",
			"name":         "Alex Morgan",
		})
		resp, err := client.Post(baseURL+"/auth/register", "application/json", bytes.NewReader(regBytes))
		require.NoError(t, err)
		defer resp.Body.Close()
		body := readBody(resp)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, "duplicate phone must return 409; body: %s", body)
	})

	t.Run("C_Login", func(t *testing.T) {
		ts.Truncate(t)
		register(t, client, baseURL, "+15551234567", "passw0rd123", "Alex Morgan")

		loginBytes, _ := json.Marshal(map[string]string{
			"phone_number": "+15551234567",
			"password":     "passw0rd123",
		})
		resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(loginBytes))
		require.NoError(t, err)
		defer resp.Body.Close()
		body := readBody(resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "login must return 200; body: %s", body)
		var res tokenResponse
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		assert.NotEmpty(t, res.AccessToken)
		assert.Equal(t, "+15551234567", res.User.PhoneNumber)
	})

	t.Run("C2_Login_AsTypedPhoneFormat", func(t *testing.T) {
		ts.Truncate(t)
		register(t, client, baseURL, "+15551234567", "passw0rd123", "Alex Morgan")

		// Bare national digits must normalize to the same account.
		loginBytes, _ := json.Marshal(map[string]string{
			"phone_number": "5551234567",
			"password":     "passw0rd123",
		})
		resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(loginBytes))
		require.NoError(t, err)
		defer resp.Body.Close()
		body := readBody(resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "login with national digits must return 200; body: %s", body)
	})

	t.Run("C3_Login_WrongPassword", func(t *testing.T) {
		ts.Truncate(t)
		register(t, client, baseURL, "+15551234567", "passw0rd123", "Alex Morgan")

		loginBytes, _ := json.Marshal(map[string]string{
			"phone_number": "+15551234567",
			"password":     "wrongpass99",
		})
		resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(loginBytes))
		require.NoError(t, err)
		defer resp.Body.Close()
		body := readBody(resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "wrong password must return 401; body: %s", body)
		var errRes errorResponse
		require.NoError(t, json.Unmarshal([]byte(body), &errRes))
		assert.Equal(t, "invalid phone number or password", errRes.Error)
	})

	t.Run("D_AuthenticatedMe", func(t *testing.T) {
		ts.Truncate(t)
		res := register(t, client, baseURL, "+15551234567", "passw0rd123", "Alex Morgan")

		req, _ := http.NewRequest(http.MethodGet, baseURL+"/me", nil)
		req.Header.Set("Authorization", "Bearer "+res.AccessToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body := readBody(resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "GET /me must return 200; body: %s", body)
		var me struct {
			ID          string `json:"id"`
			PhoneNumber string `json:"phone_number"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &me))
		assert.Equal(t, "+15551234567", me.PhoneNumber)
		assert.NotEmpty(t, me.ID)
	})

	t.Run("E_RefreshRotation", func(t *testing.T) {
		ts.Truncate(t)
		res := register(t, client, baseURL, "+15551234567", "passw0rd123", "Alex Morgan")
		oldRefresh := res.RefreshToken

		refreshBytes, _ := json.Marshal(map[string]string{"refresh_token": oldRefresh})
		resp, err := client.Post(baseURL+"/auth/refresh", "application/json", bytes.NewReader(refreshBytes))
		require.NoError(t, err)
		body := readBody(resp)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "refresh must return 200; body: %s", body)
		var refreshRes refreshResponse
		require.NoError(t, json.Unmarshal([]byte(body), &refreshRes))
		require.NotEmpty(t, refreshRes.RefreshToken)

		// Reuse of the rotated token must be detected and revoke all sessions.
		reuseBytes, _ := json.Marshal(map[string]string{"refresh_token": oldRefresh})
		respOld, err := client.Post(baseURL+"/auth/refresh", "application/json", bytes.NewReader(reuseBytes))
		require.NoError(t, err)
		oldBody := readBody(respOld)
		respOld.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, respOld.StatusCode, "reused token must return 401; body: %s", oldBody)
		var reuseErr errorResponse
		require.NoError(t, json.Unmarshal([]byte(oldBody), &reuseErr))
		assert.Equal(t, "refresh_token_reuse_detected", reuseErr.Error)

		// The replacement token is revoked too.
		newBytes, _ := json.Marshal(map[string]string{"refresh_token": refreshRes.RefreshToken})
		respNew, err := client.Post(baseURL+"/auth/refresh", "application/json", bytes.NewReader(newBytes))
		require.NoError(t, err)
		defer respNew.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, respNew.StatusCode, "globally revoked token must return 401; body: %s", readBody(respNew))
	})

	t.Run("F_WrongOTP", func(t *testing.T) {
		ts.Truncate(t)
		reqBytes, _ := json.Marshal(map[string]string{"phone_number": "+15551234567"})
		respReq, err := client.Post(baseURL+"/auth/request_otp", "application/json", bytes.NewReader(reqBytes))
		require.NoError(t, err)
		respReq.Body.Close()

		regBytes, _ := json.Marshal(map[string]string{
			"phone_number": "+15551234567",
			"otp":          "000000",
			"password":     "passw0rd123",
			"name":         "Alex Morgan",
		})
		resp, err := client.Post(baseURL+"/auth/register", "application/json", bytes.NewReader(regBytes))
		require.NoError(t, err)
		defer resp.Body.Close()
		body := readBody(resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "wrong OTP must fail; body: %s", body)
	})

	t.Run("G_OTPRateLimit", func(t *testing.T) {
		ts.Truncate(t)
		body, _ := json.Marshal(map[string]string{"phone_number": "+15559876543"})
		var lastResp *http.Response
		for i := 0; i < 4; i++ {
			resp, err := client.Post(baseURL+"/auth/request_otp", "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			lastResp = resp
			if resp.StatusCode == http.StatusTooManyRequests {
				break
			}
			resp.Body.Close()
		}
		require.NotNil(t, lastResp)
		defer lastResp.Body.Close()
		rateLimitBody := readBody(lastResp)
		assert.Equal(t, http.StatusTooManyRequests, lastResp.StatusCode, "4th request_otp must return 429 (per-phone limit); body: %s", rateLimitBody)
	})
}

// readBody reads and returns the response body (consumes it). Use for error messages only.
func readBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
