// Package model defines all shared domain types for PatchMe.
package model

import "time"

// Status is the aggregate Ok/Warning verdict for a system.
type Status string

const (
	StatusOk      Status = "Ok"
	StatusWarning Status = "Warning"
)

// BaselineType selects how a reported value is compared against the
// baseline's threshold.
type BaselineType string

const (
	BaselineMin  BaselineType = "MIN"  // warn when the value falls below the threshold
	BaselineMax  BaselineType = "MAX"  // warn when the value exceeds the threshold
	BaselineInfo BaselineType = "INFO" // informational only, never warns
)

// Baseline is an administrator-defined rule tying a variable name to a
// version threshold and a comparison mode.
type Baseline struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Variable   string       `json:"variable"`
	Type       BaselineType `json:"type"`
	MinVersion string       `json:"minVersion"` // threshold; ignored for INFO
}

// BaselineValue is the last version string a system reported for a baseline.
// Unique per (system, baseline); created lazily by the first matching ingest.
type BaselineValue struct {
	ID         string   `json:"id"`
	BaselineID string   `json:"baselineId"`
	Value      string   `json:"value"`
	Baseline   Baseline `json:"baseline"`
}

// System is a monitored host or application instance identified by its
// API key.
type System struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Hostname       string          `json:"hostname"`
	APIKey         string          `json:"apiKey"`
	LastSeen       *time.Time      `json:"lastSeen,omitempty"`
	Tags           []Tag           `json:"tags"`
	Baselines      []Baseline      `json:"baselines"`
	BaselineValues []BaselineValue `json:"baselineValues"`
}

// Tag is a free-form label attached to systems.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ActivityLog is an append-only audit entry. SystemID is nil for
// breadcrumbs left by requests with an unrecognized API key.
type ActivityLog struct {
	ID         string    `json:"id"`
	SystemID   *string   `json:"systemId,omitempty"`
	SystemName string    `json:"systemName"`
	Action     string    `json:"action"`
	Meta       string    `json:"meta,omitempty"` // raw JSON
	CreatedAt  time.Time `json:"createdAt"`
}

// Role is a user's permission level.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a dashboard account. Password holds the bcrypt hash and is
// never serialized.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

// StatusCounts summarizes system statuses for the dashboard.
type StatusCounts struct {
	Total    int `json:"total"`
	Ok       int `json:"ok"`
	Warnings int `json:"warnings"`
}
