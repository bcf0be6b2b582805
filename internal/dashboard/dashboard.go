// Package dashboard renders the sector overview pages: validated record
// counts and per-activity trends charted with go-echarts.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ghg-data/inventory.report/internal/collate"
	"github.com/ghg-data/inventory.report/internal/httputil"
	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/store"
	"github.com/ghg-data/inventory.report/internal/timeutil"
)

// Dashboard builds the HTML overview for one sector.
type Dashboard struct {
	store    store.Store
	registry *inventory.Registry
	collator *collate.Collator
	clock    timeutil.Clock
}

func New(st store.Store, reg *inventory.Registry, clock timeutil.Clock) *Dashboard {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Dashboard{
		store:    st,
		registry: reg,
		collator: collate.New(st, reg),
		clock:    clock,
	}
}

// sectorData aggregates the validated records of one sector for charting.
type sectorData struct {
	counts  map[string]int // display name -> validated record count
	byYear  map[int]int
	minYear int
	maxYear int
}

// ServeSector renders the overview page for the sector in the request
// path. Year bounds come from from=/to= query params, defaulting to the
// span of the stored data.
func (d *Dashboard) ServeSector(w http.ResponseWriter, r *http.Request) {
	sector := r.PathValue("sector")
	if !validSector(sector) {
		httputil.NotFound(w, fmt.Sprintf("unknown sector %q", sector))
		return
	}

	data, err := d.gather(r.Context(), sector)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load sector data: %v", err))
		return
	}

	fromYear, toYear := d.yearRange(r, data)
	rows, err := d.collator.Collate(r.Context(), sector, fromYear, toYear)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to collate: %v", err))
		return
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s Dashboard", sector)
	page.AddCharts(
		recordsBySubcategoryBar(sector, data),
		recordsByYearBar(sector, data, fromYear, toYear),
	)
	for _, line := range activityTrendLines(d.registry.BySector(sector), rows, fromYear, toYear) {
		page.AddCharts(line)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(w); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render dashboard: %v", err))
	}
}

// gather counts validated records per subcategory and per data year,
// bounded by the years actually present.
func (d *Dashboard) gather(ctx context.Context, sector string) (*sectorData, error) {
	data := &sectorData{counts: map[string]int{}, byYear: map[int]int{}}
	for _, sub := range d.registry.BySector(sector) {
		records, err := d.store.Select(ctx, sub.ValidatedCollection, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", sub.ValidatedCollection, err)
		}
		data.counts[sub.DisplayName] = len(records)
		for _, rec := range records {
			year, ok := recordYear(rec)
			if !ok {
				continue
			}
			data.byYear[year]++
			if data.minYear == 0 || year < data.minYear {
				data.minYear = year
			}
			if year > data.maxYear {
				data.maxYear = year
			}
		}
	}
	return data, nil
}

// yearRange resolves the chart bounds: explicit query params win, then the
// stored data's span, then the last decade.
func (d *Dashboard) yearRange(r *http.Request, data *sectorData) (int, int) {
	now := d.clock.Now().Year()
	fromYear, toYear := data.minYear, data.maxYear
	if fromYear == 0 {
		fromYear, toYear = now-10, now
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("from")); err == nil {
		fromYear = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("to")); err == nil {
		toYear = v
	}
	if toYear < fromYear {
		toYear = fromYear
	}
	return fromYear, toYear
}

func recordsBySubcategoryBar(sector string, data *sectorData) *charts.Bar {
	names := make([]string, 0, len(data.counts))
	for name := range data.counts {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]opts.BarData, len(names))
	for i, name := range names {
		values[i] = opts.BarData{Value: data.counts[name]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Records by Subcategory", Subtitle: sector}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("validated records", values,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func recordsByYearBar(sector string, data *sectorData, fromYear, toYear int) *charts.Bar {
	years := make([]string, 0, toYear-fromYear+1)
	values := make([]opts.BarData, 0, toYear-fromYear+1)
	for year := fromYear; year <= toYear; year++ {
		years = append(years, strconv.Itoa(year))
		values = append(values, opts.BarData{Value: data.byYear[year]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Records by Year", Subtitle: sector}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(years).
		AddSeries("validated records", values,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// activityTrendLines builds one line chart per subcategory, one series per
// activity, charting the collated value across the year range.
func activityTrendLines(subs []*inventory.Subcategory, rows []collate.Row, fromYear, toYear int) []*charts.Line {
	byCategory := map[string][]collate.Row{}
	for _, row := range rows {
		byCategory[row.Category] = append(byCategory[row.Category], row)
	}

	years := make([]string, 0, toYear-fromYear+1)
	for year := fromYear; year <= toYear; year++ {
		years = append(years, strconv.Itoa(year))
	}

	var lines []*charts.Line
	for _, sub := range subs {
		catRows := byCategory[sub.Code()]
		if len(catRows) == 0 {
			continue
		}

		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
			charts.WithTitleOpts(opts.Title{Title: sub.DisplayName, Subtitle: fmt.Sprintf("%d-%d", fromYear, toYear)}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		)
		line.SetXAxis(years)
		for _, row := range catRows {
			values := make([]opts.LineData, 0, len(years))
			for year := fromYear; year <= toYear; year++ {
				if v := row.Values[year]; v != nil {
					values = append(values, opts.LineData{Value: *v})
				} else {
					values = append(values, opts.LineData{Value: nil})
				}
			}
			line.AddSeries(row.Activity, values)
		}
		lines = append(lines, line)
	}
	return lines
}

func validSector(sector string) bool {
	for _, s := range inventory.Sectors {
		if s == sector {
			return true
		}
	}
	return false
}

func recordYear(rec store.Record) (int, bool) {
	switch x := rec[store.KeyDataYear].(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}
