// Package runlog records every velocity model generation request.
package runlog

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("run not found")

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefused   Status = "refused"
	StatusInvalid   Status = "invalid"
)

type Run struct {
	ID               string    `json:"id"`
	Fingerprint      string    `json:"fingerprint,omitempty"`
	ModelVersion     string    `json:"modelVersion,omitempty"`
	TotalPoints      int64     `json:"totalPoints"`
	EstimatedSeconds float64   `json:"estimatedSeconds"`
	Status           Status    `json:"status"`
	Error            string    `json:"error,omitempty"`
	DurationSeconds  float64   `json:"durationSeconds"`
	ArchiveBytes     int64     `json:"archiveBytes"`
	Subject          string    `json:"subject,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Store persists runs. List returns the newest runs first.
type Store interface {
	Add(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// DefaultListLimit caps List when the caller passes zero or less.
const DefaultListLimit = 50
