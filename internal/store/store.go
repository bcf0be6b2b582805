// Package store defines the named-collection persistence contract the form
// engine and review workflow depend on. Collections hold flat records keyed
// by an opaque identifier assigned on insert; the sqlite implementation
// lives in internal/db.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Promote when no record with the given id
// exists in the pending collection.
var ErrNotFound = errors.New("record not found")

// Record status values. A record exists in exactly one of a subcategory's
// pending or validated collections at any time.
const (
	StatusPending   = "Pending"
	StatusValidated = "Validated"
)

// Reserved record keys managed by the store and the submission assembler.
const (
	KeyID             = "id"
	KeyStatus         = "status"
	KeySubmissionDate = "submission_date"
	KeyDataYear       = "data_year"
	KeySubcategory    = "subcategory"
)

// Record is a flat mapping of column name to scalar value.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filter is an equality filter over record columns.
type Filter map[string]any

// Store is the persistence contract: equality-filtered CRUD over named
// collections plus a transactional pending-to-validated move.
type Store interface {
	// Select returns the records in collection matching every filter entry.
	// A nil filter matches everything.
	Select(ctx context.Context, collection string, filter Filter) ([]Record, error)

	// Insert stores a record and returns it with its assigned id.
	Insert(ctx context.Context, collection string, rec Record) (Record, error)

	// Update applies patch to all records matching filter and reports how
	// many were changed.
	Update(ctx context.Context, collection string, patch Record, filter Filter) (int64, error)

	// Delete removes all records matching filter and reports how many.
	Delete(ctx context.Context, collection string, filter Filter) (int64, error)

	// Promote atomically inserts a copy of the record identified by id
	// (minus the excluded keys, marked Validated and given a fresh id)
	// into the validated collection and deletes the original from the
	// pending collection. Either both effects happen or neither does.
	// Returns ErrNotFound when id is not in the pending collection.
	Promote(ctx context.Context, pending, validated, id string, exclude []string) error
}
