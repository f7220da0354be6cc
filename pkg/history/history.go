// Package history persists check reports so runs can be compared over
// time. Reports are stored as JSON files by default; a MongoDB backend is
// available for shared deployments.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pindown/pindown/pkg/resolve"
)

// Entry is one stored check run.
type Entry struct {
	ID        string                 `json:"id" bson:"_id"`
	Timestamp time.Time              `json:"timestamp" bson:"timestamp"`
	Path      string                 `json:"path" bson:"path"`
	Counts    map[resolve.Status]int `json:"counts" bson:"counts"`
	Results   []storedResult         `json:"results" bson:"results"`
}

// storedResult is the persisted subset of a check result. Errors are
// flattened to text so entries stay serializable.
type storedResult struct {
	Name   string         `json:"name" bson:"name"`
	Status resolve.Status `json:"status" bson:"status"`
	Pinned string         `json:"pinned,omitempty" bson:"pinned,omitempty"`
	Latest string         `json:"latest,omitempty" bson:"latest,omitempty"`
	Source string         `json:"source,omitempty" bson:"source,omitempty"`
	Error  string         `json:"error,omitempty" bson:"error,omitempty"`
}

// NewEntry converts a report into a storable entry with a fresh ID.
func NewEntry(report *resolve.Report) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Path:      report.Path,
		Counts:    report.Counts(),
		Results:   make([]storedResult, len(report.Results)),
	}
	for i, res := range report.Results {
		entry.Results[i] = storedResult{
			Name:   res.Name,
			Status: res.Status,
			Pinned: res.Pinned,
			Latest: res.Latest,
			Source: res.Source,
		}
		if res.Err != nil {
			entry.Results[i].Error = res.Err.Error()
		}
	}
	return entry
}

// Store persists check runs.
type Store interface {
	// Save writes one entry.
	Save(ctx context.Context, entry Entry) error
	// List returns the most recent entries, newest first, at most limit.
	List(ctx context.Context, limit int) ([]Entry, error)
	// Close releases backend resources.
	Close(ctx context.Context) error
}
