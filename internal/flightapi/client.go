// Package flightapi fetches the static flight-offer list from the remote
// JSON endpoint. One attempt per call, no retry policy: the caller decides
// what a failure means for the state it already holds.
package flightapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/kwiyos/flightdeck/internal/flights"
	"github.com/kwiyos/flightdeck/pkg/util"
)

// DefaultBaseURL is the production host serving the sample flight list.
const DefaultBaseURL = "https://static.stgairasia.com"

// FlightsPath is the fixed path of the static flight list on the base host.
const FlightsPath = "/mobile/assignment/flightssample.json"

const defaultRequestTimeout = 10 * time.Second

// Source is anything able to produce the full flight list. The controller is
// written against this interface so tests can drive it with a stub.
type Source interface {
	FetchFlights(ctx context.Context) ([]flights.Offer, error)
}

type config struct {
	FlightAPI struct {
		BaseURL               string `yaml:"base_url"`
		RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	} `yaml:"flight_api"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client from the flight_api section of the configuration file.
func New(cfgPath string) (*Client, error) {
	cfg, err := util.LoadConfig[config](cfgPath)
	if err != nil {
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}

	baseURL := cfg.FlightAPI.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := defaultRequestTimeout
	if cfg.FlightAPI.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.FlightAPI.RequestTimeoutSeconds) * time.Second
	}

	return NewWithBaseURL(baseURL, timeout), nil
}

// NewWithBaseURL builds a Client pointed at an explicit host, used by the
// mock-server mode and by tests.
func NewWithBaseURL(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchFlights performs one GET against the flights endpoint and decodes the
// JSON array. The request is tied to ctx and aborts when it is cancelled.
func (c *Client) FetchFlights(ctx context.Context) ([]flights.Offer, error) {
	fullURL := c.baseURL + FlightsPath
	log.Printf("Querying flights endpoint: %s", fullURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing HTTP GET to %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-OK status code %d from flights endpoint. Response: %s", resp.StatusCode, string(body))
	}

	var offers []flights.Offer
	if err := json.NewDecoder(resp.Body).Decode(&offers); err != nil {
		return nil, fmt.Errorf("error decoding response body: %w", err)
	}

	return offers, nil
}
