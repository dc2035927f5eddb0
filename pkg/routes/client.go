// Package routes is a client for the distance-matrix API used to annotate
// places with driving distance and duration from the search origin. The
// core only consumes the resulting text/value pairs.
package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://routes.googleapis.com"

// Element is one origin→destination distance/duration pair. A zero
// DistanceMeters means the matrix had no route for that destination.
type Element struct {
	DestinationIndex int
	DistanceText     string
	DistanceMeters   int
	DurationText     string
	DurationSeconds  int
}

// Client computes distance-matrix elements for one origin.
type Client interface {
	Matrix(ctx context.Context, originLat, originLng float64, dests [][2]float64) ([]Element, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a distance-matrix client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type waypoint struct {
	Location location `json:"location"`
}

type location struct {
	LatLng latLng `json:"latLng"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type matrixRequest struct {
	Origins      []waypoint `json:"origins"`
	Destinations []waypoint `json:"destinations"`
	TravelMode   string     `json:"travelMode"`
}

type matrixElement struct {
	DestinationIndex int    `json:"destinationIndex"`
	DistanceMeters   int    `json:"distanceMeters"`
	Duration         string `json:"duration"` // e.g. "185s"
	LocalizedValues  struct {
		Distance struct {
			Text string `json:"text"`
		} `json:"distance"`
		Duration struct {
			Text string `json:"text"`
		} `json:"duration"`
	} `json:"localizedValues"`
}

func (c *httpClient) Matrix(ctx context.Context, originLat, originLng float64, dests [][2]float64) ([]Element, error) {
	if len(dests) == 0 {
		return nil, nil
	}

	reqBody := matrixRequest{
		Origins:    []waypoint{{Location: location{LatLng: latLng{Latitude: originLat, Longitude: originLng}}}},
		TravelMode: "DRIVE",
	}
	for _, d := range dests {
		reqBody.Destinations = append(reqBody.Destinations, waypoint{
			Location: location{LatLng: latLng{Latitude: d[0], Longitude: d[1]}},
		})
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "routes: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/distanceMatrix/v2:computeRouteMatrix", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "routes: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "destinationIndex,distanceMeters,duration,localizedValues")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "routes: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("routes: unexpected status %d", resp.StatusCode)
	}

	var raw []matrixElement
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "routes: decode response")
	}

	elements := make([]Element, 0, len(raw))
	for _, e := range raw {
		elements = append(elements, Element{
			DestinationIndex: e.DestinationIndex,
			DistanceText:     e.LocalizedValues.Distance.Text,
			DistanceMeters:   e.DistanceMeters,
			DurationText:     e.LocalizedValues.Duration.Text,
			DurationSeconds:  parseDurationSeconds(e.Duration),
		})
	}
	return elements, nil
}

// parseDurationSeconds parses the API's "NNNs" duration strings.
func parseDurationSeconds(s string) int {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return int(d.Seconds())
}
