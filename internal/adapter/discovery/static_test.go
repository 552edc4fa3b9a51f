package discovery

import (
	"context"
	"testing"

	"github.com/thushan/edge-utils/internal/config"
	"github.com/thushan/edge-utils/internal/core/domain"
)

func TestNewStaticEndpointRepository_ParsesEndpoints(t *testing.T) {
	cfg := config.BalancerConfig{
		Endpoints: []config.EndpointConfig{
			{Name: "a", URL: "http://localhost:8001", Weight: 1},
			{Name: "b", URL: "http://localhost:8002", HealthCheckURL: "http://localhost:8002/healthz", Weight: 2},
		},
	}

	repo, err := NewStaticEndpointRepository(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(all))
	}
	if all[1].HealthCheckURLString != "http://localhost:8002/healthz" {
		t.Errorf("expected custom health check url to be respected, got %q", all[1].HealthCheckURLString)
	}
}

func TestNewStaticEndpointRepository_ResolvesRelativeHealthCheckPath(t *testing.T) {
	cfg := config.BalancerConfig{
		Endpoints: []config.EndpointConfig{
			{Name: "a", URL: "http://localhost:8001/api/", HealthCheckURL: "/healthz", Weight: 1},
		},
	}

	repo, err := NewStaticEndpointRepository(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, _ := repo.GetAll(context.Background())
	if got, want := all[0].HealthCheckURLString, "http://localhost:8001/api/healthz"; got != want {
		t.Errorf("expected relative health_check_url resolved against the endpoint url, got %q, want %q", got, want)
	}
}

func TestNewStaticEndpointRepository_RejectsInvalidURL(t *testing.T) {
	cfg := config.BalancerConfig{
		Endpoints: []config.EndpointConfig{
			{Name: "bad", URL: "://not-a-url"},
		},
	}

	if _, err := NewStaticEndpointRepository(cfg); err == nil {
		t.Error("expected an error for an invalid endpoint url")
	}
}

func TestStaticEndpointRepository_GetEligibleFiltersByHealth(t *testing.T) {
	cfg := config.BalancerConfig{
		Endpoints: []config.EndpointConfig{
			{Name: "a", URL: "http://localhost:8001"},
			{Name: "b", URL: "http://localhost:8002"},
		},
	}
	repo, err := NewStaticEndpointRepository(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, _ := repo.GetAll(context.Background())
	all[0].RecordProbeSuccess()
	all[0].RecordProbeSuccess()
	all[0].RecordProbeSuccess()

	eligible, err := repo.GetEligible(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eligible) != 1 || eligible[0].Name != "a" {
		t.Fatalf("expected only the recovered endpoint to be eligible, got %+v", eligible)
	}
}

func TestStaticEndpointRepository_SharesPointersWithCallers(t *testing.T) {
	cfg := config.BalancerConfig{
		Endpoints: []config.EndpointConfig{{Name: "a", URL: "http://localhost:8001"}},
	}
	repo, err := NewStaticEndpointRepository(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, _ := repo.GetAll(context.Background())
	first[0].IncActive()

	second, _ := repo.GetAll(context.Background())
	if second[0].ActiveRequests() != 1 {
		t.Error("expected GetAll calls to share the same underlying *Endpoint state")
	}

	var _ domain.EndpointRepository = repo
}
