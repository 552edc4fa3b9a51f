package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/thushan/edge-utils/internal/core/domain"
	"github.com/thushan/edge-utils/internal/logger"
)

type mockRepository struct {
	mu        sync.RWMutex
	endpoints map[string]*domain.Endpoint
}

func newMockRepository(endpoints ...*domain.Endpoint) *mockRepository {
	m := &mockRepository{endpoints: make(map[string]*domain.Endpoint)}
	for _, e := range endpoints {
		m.endpoints[e.GetURLString()] = e
	}
	return m
}

func (m *mockRepository) GetAll(ctx context.Context) ([]*domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Endpoint, 0, len(m.endpoints))
	for _, e := range m.endpoints {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockRepository) GetEligible(ctx context.Context) ([]*domain.Endpoint, error) {
	all, _ := m.GetAll(ctx)
	out := make([]*domain.Endpoint, 0, len(all))
	for _, e := range all {
		if e.IsRoutable() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateEndpoint(ctx context.Context, endpoint *domain.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[endpoint.GetURLString()] = endpoint
	return nil
}

func testLogger(t *testing.T) logger.StyledLogger {
	t.Helper()
	log, cleanup, err := logger.New(&logger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	t.Cleanup(cleanup)
	return logger.NewPlainStyledLogger(log)
}

func TestHTTPHealthChecker_Check_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	endpoint := domain.NewEndpoint("test", u, u, 1, 0)
	endpoint.CheckTimeout = time.Second

	checker := NewHTTPHealthChecker(newMockRepository(endpoint), testLogger(t))
	result, err := checker.Check(context.Background(), endpoint)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Status != domain.StatusHealthy {
		t.Errorf("expected StatusHealthy, got %v", result.Status)
	}
}

func TestHTTPHealthChecker_Check_NetworkError(t *testing.T) {
	u, _ := url.Parse("http://127.0.0.1:1")
	endpoint := domain.NewEndpoint("test", u, u, 1, 0)
	endpoint.CheckTimeout = 50 * time.Millisecond

	checker := NewHTTPHealthChecker(newMockRepository(endpoint), testLogger(t))
	result, err := checker.Check(context.Background(), endpoint)
	if err == nil {
		t.Fatal("expected an error")
	}
	if result.Status != domain.StatusOffline {
		t.Errorf("expected StatusOffline, got %v", result.Status)
	}
}

func TestCircuitBreaker_BasicOperation(t *testing.T) {
	cb := NewCircuitBreaker()
	u := "http://localhost:11434"

	if cb.IsOpen(u) {
		t.Fatal("should start closed")
	}
	for i := 0; i < DefaultCircuitBreakerThreshold; i++ {
		cb.RecordFailure(u)
	}
	if !cb.IsOpen(u) {
		t.Fatal("should open after threshold failures")
	}
	cb.RecordSuccess(u)
	if cb.IsOpen(u) {
		t.Fatal("should close after a recorded success")
	}
}

func TestHTTPHealthChecker_RecoveryCallback(t *testing.T) {
	healthy := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	endpoint := domain.NewEndpoint("test", u, u, 1, 0)
	endpoint.CheckTimeout = 200 * time.Millisecond
	endpoint.CheckInterval = time.Hour
	endpoint.FailureThreshold = 1
	endpoint.SuccessThreshold = 1
	// The healthy bit starts false (its zero value) and this failure keeps it
	// false; with SuccessThreshold 1 a single successful probe flips it true.
	endpoint.RecordProbeFailure()

	repo := newMockRepository(endpoint)
	checker := NewHTTPHealthChecker(repo, testLogger(t))

	var mu sync.Mutex
	var recovered *domain.Endpoint
	checker.SetRecoveryCallback(RecoveryCallbackFunc(func(ctx context.Context, e *domain.Endpoint) error {
		mu.Lock()
		defer mu.Unlock()
		recovered = e
		return nil
	}))

	if err := checker.StartChecking(context.Background()); err != nil {
		t.Fatalf("StartChecking: %v", err)
	}
	defer checker.StopChecking(context.Background())

	healthy = true
	if err := checker.ForceHealthCheck(context.Background()); err != nil {
		t.Fatalf("ForceHealthCheck: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := recovered
		mu.Unlock()
		if got != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("recovery callback was never invoked")
}
