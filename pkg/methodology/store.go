// Package methodology stores reusable solved-problem write-ups. The
// embedding-based similarity index is an external concern; this package
// defines the boundary and ships a file-backed implementation that scores
// candidates by keyword overlap.
package methodology

import (
	"context"
	"time"
)

// Methodology is one stored write-up.
type Methodology struct {
	ID        string    `json:"id"`
	Problem   string    `json:"problem"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the collaborator boundary the agent talks to.
type Store interface {
	// Save persists a write-up.
	Save(ctx context.Context, m Methodology) error

	// Find returns up to limit write-ups relevant to the problem text,
	// most relevant first.
	Find(ctx context.Context, problem string, limit int) ([]Methodology, error)
}
