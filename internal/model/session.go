package model

import "time"

// Session captures one search's canonical data: the correlated (pre-
// filter) chargers and places plus the criteria snapshot last applied.
// Refiltering re-runs the filter pipeline over this data without a new
// fetch; a new search discards the session.
type Session struct {
	ID        string         `json:"id"`
	Query     string         `json:"query"`
	Origin    Coordinate     `json:"origin"`
	Criteria  FilterCriteria `json:"criteria"`
	Chargers  []Charger      `json:"chargers"`
	Places    []Place        `json:"places"`
	CreatedAt time.Time      `json:"created_at"`
}

// SessionSummary is the listing row for stored sessions.
type SessionSummary struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	PlaceCount   int       `json:"place_count"`
	ChargerCount int       `json:"charger_count"`
	CreatedAt    time.Time `json:"created_at"`
}
