// Package db implements the store.Store contract on sqlite. Every record
// lives in the records table: reserved keys get real columns so filters and
// dashboards can index them, everything else lands in a JSON fields blob.
package db

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ghg-data/inventory.report/internal/store"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the database at path and applies any pending
// migrations. Use ":memory:" for an ephemeral database.
func NewDB(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db := &DB{sqldb}
	if err := db.MigrateUp(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// Column names backing the reserved record keys. Everything else is stored
// inside the fields JSON blob.
var reservedColumns = map[string]bool{
	store.KeyID:             true,
	store.KeySubcategory:    true,
	store.KeyDataYear:       true,
	store.KeyStatus:         true,
	store.KeySubmissionDate: true,
}

// dbtx lets the query helpers run against either the pool or a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Select returns the records in collection matching every filter entry,
// oldest submission first.
func (db *DB) Select(ctx context.Context, collection string, filter store.Filter) ([]store.Record, error) {
	return selectRecords(ctx, db.DB, collection, filter)
}

// Insert stores rec in collection, assigning an id if it carries none, and
// returns the stored record with its id set.
func (db *DB) Insert(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	out := rec.Clone()
	id, _ := out[store.KeyID].(string)
	if id == "" {
		id = uuid.NewString()
		out[store.KeyID] = id
	}
	fields, err := encodeFields(out)
	if err != nil {
		return nil, fmt.Errorf("encode record for %s: %w", collection, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO records (id, collection, subcategory, data_year, status, submission_date, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, collection,
		out[store.KeySubcategory], out[store.KeyDataYear],
		out[store.KeyStatus], out[store.KeySubmissionDate], fields,
	)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return out, nil
}

// Update applies patch to every record in collection matching filter. The
// id key can never be patched.
func (db *DB) Update(ctx context.Context, collection string, patch store.Record, filter store.Filter) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	matches, err := selectRecords(ctx, tx, collection, filter)
	if err != nil {
		return 0, err
	}
	for _, rec := range matches {
		for k, v := range patch {
			if k == store.KeyID {
				continue
			}
			rec[k] = v
		}
		if err := updateRecord(ctx, tx, rec); err != nil {
			return 0, fmt.Errorf("update %s: %w", collection, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

// Delete removes every record in collection matching filter.
func (db *DB) Delete(ctx context.Context, collection string, filter store.Filter) (int64, error) {
	where, args := buildWhere(collection, filter)
	res, err := db.ExecContext(ctx, "DELETE FROM records WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return res.RowsAffected()
}

// Promote moves the record identified by id from the pending collection to
// the validated collection in one transaction. The validated copy drops the
// excluded keys, gets a fresh id and is marked Validated.
func (db *DB) Promote(ctx context.Context, pending, validated, id string, exclude []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	matches, err := selectRecords(ctx, tx, pending, store.Filter{store.KeyID: id})
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("promote %s from %s: %w", id, pending, store.ErrNotFound)
	}

	rec := matches[0]
	for _, k := range exclude {
		delete(rec, k)
	}
	rec[store.KeyID] = uuid.NewString()
	rec[store.KeyStatus] = store.StatusValidated

	fields, err := encodeFields(rec)
	if err != nil {
		return fmt.Errorf("encode validated record: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records (id, collection, subcategory, data_year, status, submission_date, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec[store.KeyID], validated,
		rec[store.KeySubcategory], rec[store.KeyDataYear],
		rec[store.KeyStatus], rec[store.KeySubmissionDate], fields,
	); err != nil {
		return fmt.Errorf("insert into %s: %w", validated, err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM records WHERE collection = ? AND id = ?", pending, id,
	); err != nil {
		return fmt.Errorf("delete from %s: %w", pending, err)
	}
	return tx.Commit()
}

func selectRecords(ctx context.Context, q dbtx, collection string, filter store.Filter) ([]store.Record, error) {
	where, args := buildWhere(collection, filter)
	rows, err := q.QueryContext(ctx,
		`SELECT id, subcategory, data_year, status, submission_date, fields
		 FROM records WHERE `+where+` ORDER BY submission_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", collection, err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var (
			id             string
			subcategory    sql.NullString
			dataYear       sql.NullInt64
			status         sql.NullString
			submissionDate sql.NullString
			fields         string
		)
		if err := rows.Scan(&id, &subcategory, &dataYear, &status, &submissionDate, &fields); err != nil {
			return nil, err
		}
		rec := store.Record{}
		if err := json.Unmarshal([]byte(fields), &rec); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", id, err)
		}
		rec[store.KeyID] = id
		if subcategory.Valid {
			rec[store.KeySubcategory] = subcategory.String
		}
		if dataYear.Valid {
			rec[store.KeyDataYear] = int(dataYear.Int64)
		}
		if status.Valid {
			rec[store.KeyStatus] = status.String
		}
		if submissionDate.Valid {
			rec[store.KeySubmissionDate] = submissionDate.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func updateRecord(ctx context.Context, q dbtx, rec store.Record) error {
	fields, err := encodeFields(rec)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`UPDATE records SET subcategory = ?, data_year = ?, status = ?, submission_date = ?, fields = ?
		 WHERE id = ?`,
		rec[store.KeySubcategory], rec[store.KeyDataYear],
		rec[store.KeyStatus], rec[store.KeySubmissionDate], fields, rec[store.KeyID],
	)
	return err
}

// buildWhere turns an equality filter into a WHERE clause. Reserved keys
// match their columns; everything else matches into the fields JSON.
func buildWhere(collection string, filter store.Filter) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{collection}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := filter[k]
		switch {
		case reservedColumns[k]:
			if v == nil {
				clauses = append(clauses, k+" IS NULL")
			} else {
				clauses = append(clauses, k+" = ?")
				args = append(args, v)
			}
		case v == nil:
			// Matches both an absent key and an explicit null value.
			clauses = append(clauses, "(json_type(fields, ?) IS NULL OR json_type(fields, ?) = 'null')")
			args = append(args, "$."+k, "$."+k)
		default:
			clauses = append(clauses, "json_extract(fields, ?) = ?")
			args = append(args, "$."+k, v)
		}
	}
	return strings.Join(clauses, " AND "), args
}

// encodeFields serializes everything outside the reserved columns.
func encodeFields(rec store.Record) (string, error) {
	fields := make(map[string]any, len(rec))
	for k, v := range rec {
		if reservedColumns[k] {
			continue
		}
		fields[k] = v
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
