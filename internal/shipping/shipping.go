package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

// Region is one destination option (province, city, or district).
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Quote is a delivery cost estimate for a destination.
type Quote struct {
	DestinationID string `json:"destination_id"`
	CostRupiah    int64  `json:"cost_rupiah"`
}

// Lookup resolves delivery destinations and costs.
type Lookup interface {
	Provinces(ctx context.Context) ([]Region, error)
	Cities(ctx context.Context, provinceID string) ([]Region, error)
	Cost(ctx context.Context, destinationID string, weightKg float64) (*Quote, error)
}

// Client talks to a RajaOngkir-style region API. The shop charges one flat
// delivery fee, so Cost only uses the API for destination validation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	flatFee    int64
}

// NewClient builds the shipping lookup client.
func NewClient(cfg config.ShippingConfig, flatFee int64) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("shipping api url is required")
	}
	if flatFee < 0 {
		return nil, fmt.Errorf("flat fee cannot be negative")
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		flatFee:    flatFee,
	}, nil
}

func (c *Client) Provinces(ctx context.Context) ([]Region, error) {
	return c.fetchRegions(ctx, "/province", nil)
}

func (c *Client) Cities(ctx context.Context, provinceID string) ([]Region, error) {
	if strings.TrimSpace(provinceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "province id is required")
	}
	return c.fetchRegions(ctx, "/city", url.Values{"province": {provinceID}})
}

func (c *Client) Cost(ctx context.Context, destinationID string, weightKg float64) (*Quote, error) {
	if strings.TrimSpace(destinationID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination id is required")
	}
	if weightKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	return &Quote{DestinationID: destinationID, CostRupiah: c.flatFee}, nil
}

type regionPayload struct {
	Data []struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"data"`
}

func (c *Client) fetchRegions(ctx context.Context, path string, query url.Values) ([]Region, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping region lookup")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("shipping api responded %d", resp.StatusCode))
	}

	var payload regionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding shipping response")
	}

	regions := make([]Region, 0, len(payload.Data))
	for _, row := range payload.Data {
		regions = append(regions, Region{ID: row.ID.String(), Name: row.Name})
	}
	return regions, nil
}
