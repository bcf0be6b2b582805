// Package collate aggregates validated records into the activity-by-year
// table used for inventory reporting. Each registered activity mapping
// becomes one row, with one aggregated value per year in the requested
// range.
package collate

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/monitoring"
	"github.com/ghg-data/inventory.report/internal/store"
)

// Row is one collated activity line. Values maps data year to the
// aggregated value. Only mean aggregations carry nil entries for missing
// years; a sum of nothing reports zero.
type Row struct {
	Activity string           `json:"activity"`
	Category string           `json:"category"`
	Units    string           `json:"units"`
	Notes    string           `json:"notes"`
	Values   map[int]*float64 `json:"values"`
}

// Collator reads validated collections and aggregates activity columns.
type Collator struct {
	store    store.Store
	registry *inventory.Registry
}

func New(st store.Store, reg *inventory.Registry) *Collator {
	return &Collator{store: st, registry: reg}
}

// Collate aggregates every activity mapping in the registry over the
// inclusive year range. A non-empty sector restricts the output to that
// sector's subcategories.
func (c *Collator) Collate(ctx context.Context, sector string, fromYear, toYear int) ([]Row, error) {
	if fromYear > toYear {
		return nil, fmt.Errorf("invalid year range %d-%d", fromYear, toYear)
	}

	subs := c.registry.All()
	if sector != "" {
		subs = c.registry.BySector(sector)
	}

	var rows []Row
	for _, sub := range subs {
		if len(sub.Activities) == 0 {
			continue
		}
		records, err := c.store.Select(ctx, sub.ValidatedCollection, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", sub.ValidatedCollection, err)
		}
		if len(records) == 0 {
			monitoring.Logf("collation: no validated records for %s", sub.Name)
		}
		for _, act := range sub.Activities {
			rows = append(rows, collateActivity(sub, &act, records, fromYear, toYear))
		}
	}
	return rows, nil
}

// collateActivity aggregates one activity column across records grouped by
// data year. Non-numeric cells are skipped, matching how the entry side
// stores unconvertible values as null.
func collateActivity(sub *inventory.Subcategory, act *inventory.Activity, records []store.Record, fromYear, toYear int) Row {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, rec := range records {
		year, ok := asInt(rec[store.KeyDataYear])
		if !ok || year < fromYear || year > toYear {
			continue
		}
		v, ok := asFloat(rec[act.Column])
		if !ok {
			continue
		}
		sums[year] += v
		counts[year]++
	}

	values := make(map[int]*float64, toYear-fromYear+1)
	for year := fromYear; year <= toYear; year++ {
		switch {
		case counts[year] > 0 && act.Aggregation == inventory.AggMean:
			m := sums[year] / float64(counts[year])
			values[year] = &m
		case counts[year] > 0:
			s := sums[year]
			values[year] = &s
		case act.Aggregation == inventory.AggSum:
			zero := 0.0
			values[year] = &zero
		default:
			values[year] = nil
		}
	}

	return Row{
		Activity: act.Label,
		Category: sub.Code(),
		Units:    act.Units,
		Notes:    act.Notes,
		Values:   values,
	}
}

// WriteCSV renders rows in report order: Activity, Category, Units, Notes,
// then one column per year. Values print with two decimals; missing means
// stay empty.
func WriteCSV(w io.Writer, rows []Row, fromYear, toYear int) error {
	cw := csv.NewWriter(w)

	header := []string{"Activity", "Category", "Units", "Notes"}
	for year := fromYear; year <= toYear; year++ {
		header = append(header, strconv.Itoa(year))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		line := []string{row.Activity, row.Category, row.Units, row.Notes}
		for year := fromYear; year <= toYear; year++ {
			if v := row.Values[year]; v != nil {
				line = append(line, fmt.Sprintf("%.2f", *v))
			} else {
				line = append(line, "")
			}
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Years returns the sorted year columns of a row set. Handy for callers
// that received rows without the original range.
func Years(rows []Row) []int {
	seen := map[int]bool{}
	for _, row := range rows {
		for year := range row.Values {
			seen[year] = true
		}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
