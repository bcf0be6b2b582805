// Package review implements the validation workflow: listing pending
// submissions, surfacing provider contact details for follow-up, and
// promoting a checked record into its validated collection.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/monitoring"
	"github.com/ghg-data/inventory.report/internal/store"
)

// ErrUnknownSubcategory is returned when a subcategory name is not in the
// registry.
var ErrUnknownSubcategory = errors.New("unknown subcategory")

// NotFoundError reports a record id absent from a subcategory's pending
// collection.
type NotFoundError struct {
	Subcategory string
	RecordID    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no record %s pending in %s", e.RecordID, e.Subcategory)
}

// StaleStateError reports a record that left the Pending state between the
// reviewer loading it and acting on it.
type StaleStateError struct {
	RecordID string
	Status   string
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("record %s is no longer pending (status: %s)", e.RecordID, e.Status)
}

// ValidationError reports a key field that blocks promotion.
type ValidationError struct {
	RecordID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %s field %s: %s", e.RecordID, e.Field, e.Reason)
}

// Contact holds the provider follow-up details shown when a reviewer flags
// a record as incorrect.
type Contact struct {
	Person string `json:"provider_contact_person"`
	Email  string `json:"contact_email"`
	Phone  string `json:"contact_phone"`
}

// Keys never copied into a validated collection.
var excludeOnPromote = []string{store.KeyID, store.KeyStatus, store.KeySubmissionDate}

// Promoter runs the review workflow for registered subcategories.
type Promoter struct {
	store    store.Store
	registry *inventory.Registry
}

func NewPromoter(st store.Store, reg *inventory.Registry) *Promoter {
	return &Promoter{store: st, registry: reg}
}

// Pending returns the records awaiting review in a subcategory's pending
// collection.
func (p *Promoter) Pending(ctx context.Context, subcategory string) ([]store.Record, error) {
	sub, ok := p.registry.Lookup(subcategory)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubcategory, subcategory)
	}
	return p.store.Select(ctx, sub.PendingCollection, store.Filter{store.KeyStatus: store.StatusPending})
}

// Promote validates the key fields of a pending record and moves it into
// the subcategory's validated collection. The record must still be Pending
// when the move runs; reviewers working from a stale listing get a
// StaleStateError instead of a double promotion.
func (p *Promoter) Promote(ctx context.Context, subcategory, recordID string) error {
	sub, rec, err := p.fetch(ctx, subcategory, recordID)
	if err != nil {
		return err
	}

	for _, field := range sub.KeyFields {
		if err := checkKeyField(rec, recordID, field); err != nil {
			return err
		}
	}

	if err := p.store.Promote(ctx, sub.PendingCollection, sub.ValidatedCollection, recordID, excludeOnPromote); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Subcategory: subcategory, RecordID: recordID}
		}
		return err
	}
	monitoring.Logf("promoted record %s from %s to %s", recordID, sub.PendingCollection, sub.ValidatedCollection)
	return nil
}

// ContactDetails returns the provider contact fields of a still-pending
// record so a reviewer can follow up on incorrect data.
func (p *Promoter) ContactDetails(ctx context.Context, subcategory, recordID string) (*Contact, error) {
	_, rec, err := p.fetch(ctx, subcategory, recordID)
	if err != nil {
		return nil, err
	}
	return &Contact{
		Person: asString(rec["provider_contact_person"]),
		Email:  asString(rec["contact_email"]),
		Phone:  asString(rec["contact_phone"]),
	}, nil
}

// fetch loads a record from the subcategory's pending collection and
// re-checks that it is still Pending.
func (p *Promoter) fetch(ctx context.Context, subcategory, recordID string) (*inventory.Subcategory, store.Record, error) {
	sub, ok := p.registry.Lookup(subcategory)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSubcategory, subcategory)
	}
	records, err := p.store.Select(ctx, sub.PendingCollection, store.Filter{store.KeyID: recordID})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch record %s: %w", recordID, err)
	}
	if len(records) == 0 {
		return nil, nil, &NotFoundError{Subcategory: subcategory, RecordID: recordID}
	}
	rec := records[0]
	if status := asString(rec[store.KeyStatus]); status != store.StatusPending {
		return nil, nil, &StaleStateError{RecordID: recordID, Status: status}
	}
	return sub, rec, nil
}

// checkKeyField enforces the promotion rule: the field must be present and
// non-null, and numeric values must be positive.
func checkKeyField(rec store.Record, recordID, field string) error {
	v, ok := rec[field]
	if !ok {
		return &ValidationError{RecordID: recordID, Field: field, Reason: "missing required field"}
	}
	if v == nil {
		return &ValidationError{RecordID: recordID, Field: field, Reason: "must be positive and non-null"}
	}
	switch n := v.(type) {
	case int:
		if n <= 0 {
			return &ValidationError{RecordID: recordID, Field: field, Reason: "must be positive and non-null"}
		}
	case int64:
		if n <= 0 {
			return &ValidationError{RecordID: recordID, Field: field, Reason: "must be positive and non-null"}
		}
	case float64:
		if n <= 0 {
			return &ValidationError{RecordID: recordID, Field: field, Reason: "must be positive and non-null"}
		}
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
