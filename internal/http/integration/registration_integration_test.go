//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mockskills/collabzone/internal/config"
	apphttp "github.com/mockskills/collabzone/internal/http"
	"github.com/mockskills/collabzone/internal/http/handlers"
	"github.com/mockskills/collabzone/internal/notifications"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/repo/postgres"
	"github.com/mockskills/collabzone/internal/service"
	"github.com/mockskills/collabzone/internal/testutil/containers"
	"github.com/prometheus/client_golang/prometheus"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:          1000,
		RateLimitWindow:    time.Minute,
		RepairBatchSize:    10,
	}
}

type apiErrorResponse struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

func setupTestRouter(t *testing.T) (*gin.Engine, *containers.PostgresContainer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pg := containers.NewPostgresContainer(t)

	// Basic logger that discards outputs during tests
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	prom := observability.NewProm(prometheus.NewRegistry())
	repo := postgres.NewRegistrationsRepo(pg.Pool, prom)
	notifier := notifications.NewConfirmationNotifier(notifications.NewLogTransport(logger, notifications.LogTransportConfig{}), "support@mockskills.com", logger, prom)
	svc := service.NewRegistrationService(repo, notifier, logger, prom)

	router, err := apphttp.NewRouter(logger, testConfig(), apphttp.Deps{
		Registrations: svc,
		Checks:        map[string]handlers.PingFunc{"store": repo.Ping},
		Prom:          prom,
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}

	return router, pg
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/collabzone/registration", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func body(email string) string {
	return fmt.Sprintf(`{
		"email": %q,
		"name": "Sam Doe",
		"department": "FINANCE",
		"skills": ["Accounting"]
	}`, email)
}

func TestRegisterIntegration_HappyPath(t *testing.T) {
	router, pg := setupTestRouter(t)
	pg.Truncate(t)

	w := post(router, body("sam@example.com"))
	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	//  we can also verify if the row exists
	var formatted string
	err := pg.Pool.QueryRow(
		context.Background(),
		`SELECT formatted_id FROM collabzone_joinus_register WHERE email = $1`,
		"sam@example.com",
	).Scan(&formatted)
	if err != nil {
		t.Fatalf("failed to query registrations: %v", err)
	}

	if formatted != "GENZ00001" {
		t.Fatalf("formatted_id = %q, want GENZ00001", formatted)
	}
}

func TestRegisterIntegration_DuplicateEmail(t *testing.T) {
	router, pg := setupTestRouter(t)
	pg.Truncate(t)

	if w := post(router, body("sam@example.com")); w.Code != http.StatusCreated {
		t.Fatalf("[first call] got status %d, body=%s", w.Code, w.Body.String())
	}

	w := post(router, body("SAM@example.com"))
	if w.Code != http.StatusConflict {
		t.Fatalf("[second call] got status %d, want %d, body=%s", w.Code, http.StatusConflict, w.Body.String())
	}

	var response apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal error response: %v", err)
	}

	if response.Error.Code != "email_taken" {
		t.Fatalf("expected error code email_taken, got %q", response.Error.Code)
	}
	if response.Error.RequestID == "" {
		t.Fatalf("expected a request id on the error envelope")
	}
}

func TestRegisterIntegration_ConcurrentSameEmail(t *testing.T) {
	router, pg := setupTestRouter(t)
	pg.Truncate(t)

	const n = 8

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := post(router, body("race@example.com"))
			mu.Lock()
			codes[w.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if codes[http.StatusCreated] != 1 || codes[http.StatusConflict] != n-1 {
		t.Fatalf("unexpected status spread: %v", codes)
	}

	var count int
	if err := pg.Pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM collabzone_joinus_register`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestRegisterIntegration_GetAndList(t *testing.T) {
	router, pg := setupTestRouter(t)
	pg.Truncate(t)

	post(router, body("a@example.com"))
	post(router, body("b@example.com"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/collabzone/registration/2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/collabzone/registrations", nil))

	var regs []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &regs); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(regs) != 2 || regs[1]["formattedId"] != "GENZ00002" {
		t.Fatalf("unexpected list: %v", regs)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/collabzone/registration/999999", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing: got %d", w.Code)
	}
}
