// Package storage defines the dispatch journal: a durable record of the
// hooks a scenario run invoked and the variant each one resolved to.
package storage

import (
	"context"
	"time"
)

// NoVariant is the variant index journaled for instances with no match.
const NoVariant = -1

// Entry is one journaled hook invocation or scenario mark.
type Entry struct {
	ID       int64
	RunID    string
	Tick     int64
	ObjectID uint32
	// Kind is the formatted kind hash.
	Kind string
	// Role is start, frame, command, script, status or mark.
	Role string
	Name string
	// Variant is the resolved variant index at the time, or NoVariant.
	Variant   int
	Label     string
	CreatedAt time.Time
}

// RoleCount is the number of entries a run journaled for one role.
type RoleCount struct {
	Role  string
	Count int
}

// Journal persists dispatch journal entries.
type Journal interface {
	RecordEntries(ctx context.Context, entries []Entry) error
	ListEntries(ctx context.Context, runID string, limit int) ([]Entry, error)
	CountByRole(ctx context.Context, runID string) ([]RoleCount, error)
}
