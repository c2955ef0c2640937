package shipping

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.ShippingConfig{
		APIURL:         server.URL,
		APIKey:         "test-key",
		RequestTimeout: 2 * time.Second,
	}, 20000)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestProvinces(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/province" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("key") != "test-key" {
			t.Error("expected api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":9,"name":"Jawa Barat"},{"id":10,"name":"Jawa Tengah"}]}`))
	})

	provinces, err := client.Provinces(context.Background())
	if err != nil {
		t.Fatalf("provinces: %v", err)
	}
	if len(provinces) != 2 {
		t.Fatalf("expected 2 provinces, got %d", len(provinces))
	}
	if provinces[0].ID != "9" || provinces[0].Name != "Jawa Barat" {
		t.Fatalf("unexpected region %+v", provinces[0])
	}
}

func TestCitiesRequiresProvince(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("province"); got != "9" {
			t.Errorf("unexpected province %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":55,"name":"Bogor"}]}`))
	})

	_, err := client.Cities(context.Background(), "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	cities, err := client.Cities(context.Background(), "9")
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	if len(cities) != 1 || cities[0].Name != "Bogor" {
		t.Fatalf("unexpected cities %+v", cities)
	}
}

func TestUpstreamFailureIsDependencyError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Provinces(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCostUsesFlatFee(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("cost must not call the api")
	})

	quote, err := client.Cost(context.Background(), "55", 50)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if quote.CostRupiah != 20000 {
		t.Fatalf("expected flat fee 20000, got %d", quote.CostRupiah)
	}

	_, err = client.Cost(context.Background(), "55", 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
