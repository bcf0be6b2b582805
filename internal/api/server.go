// Package api exposes the data-entry and review workflows over HTTP:
// form schemas as renderable widgets, submission, the pending/promote
// review loop, collation, and the sector dashboards.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ghg-data/inventory.report/internal/collate"
	"github.com/ghg-data/inventory.report/internal/dashboard"
	"github.com/ghg-data/inventory.report/internal/form"
	"github.com/ghg-data/inventory.report/internal/httputil"
	"github.com/ghg-data/inventory.report/internal/inventory"
	"github.com/ghg-data/inventory.report/internal/review"
	"github.com/ghg-data/inventory.report/internal/schema"
	"github.com/ghg-data/inventory.report/internal/security"
	"github.com/ghg-data/inventory.report/internal/store"
	"github.com/ghg-data/inventory.report/internal/timeutil"
	"github.com/ghg-data/inventory.report/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// DefaultCollationSpan is how many years back the collation endpoints
// reach when the request names no range and no span is configured.
const DefaultCollationSpan = 10

// Server wires the form engine, store and review workflow behind a JSON
// API plus the HTML dashboards.
type Server struct {
	store         store.Store
	registry      *inventory.Registry
	forms         *schema.Dir
	assembler     *form.Assembler
	promoter      *review.Promoter
	collator      *collate.Collator
	dashboard     *dashboard.Dashboard
	clock         timeutil.Clock
	baselineYear  int
	collationSpan int
}

// NewServer builds the API server. Zero baselineYear or collationSpan
// select the defaults.
func NewServer(st store.Store, reg *inventory.Registry, forms *schema.Dir, clock timeutil.Clock, baselineYear, collationSpan int) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if baselineYear == 0 {
		baselineYear = form.DefaultBaselineYear
	}
	if collationSpan <= 0 {
		collationSpan = DefaultCollationSpan
	}
	assembler := form.NewAssembler(clock)
	assembler.BaselineYear = baselineYear
	return &Server{
		store:         st,
		registry:      reg,
		forms:         forms,
		assembler:     assembler,
		promoter:      review.NewPromoter(st, reg),
		collator:      collate.New(st, reg),
		dashboard:     dashboard.New(st, reg, clock),
		clock:         clock,
		baselineYear:  baselineYear,
		collationSpan: collationSpan,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/forms/{subcategory}", s.showForm)
	mux.HandleFunc("POST /api/submit", s.submit)
	mux.HandleFunc("GET /api/pending", s.listPending)
	mux.HandleFunc("POST /api/promote", s.promote)
	mux.HandleFunc("GET /api/contact", s.showContact)
	mux.HandleFunc("GET /api/collation", s.showCollation)
	mux.HandleFunc("GET /api/config", s.showConfig)
	mux.HandleFunc("GET /dashboard/{sector}", s.dashboard.ServeSector)
	return mux
}

// formResponse is the renderable shape of one subcategory form: the
// general provider fields, the subcategory's own fields, and its tables.
type formResponse struct {
	Subcategory string              `json:"subcategory"`
	DisplayName string              `json:"display_name"`
	General     []*form.Widget      `json:"general"`
	Fields      []*form.Widget      `json:"fields"`
	Tables      []*form.TableWidget `json:"tables"`
}

func (s *Server) showForm(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("subcategory")
	sub, ok := s.registry.Lookup(name)
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("unknown subcategory %q", name))
		return
	}
	cfg, err := s.forms.Form(sub.Name)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load form: %v", err))
		return
	}
	general, err := s.forms.General()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load general form: %v", err))
		return
	}

	// Render against a fresh session so defaults and unit selections come
	// back exactly as a new entry session would see them.
	sess := form.NewSession(s.clock)
	prefix := form.Prefix(sub.Name)

	generalWidgets, err := form.RenderFields(general.AllFields(), sess, "")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render general fields: %v", err))
		return
	}
	fieldWidgets, err := form.RenderFields(cfg.AllFields(), sess, prefix)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render fields: %v", err))
		return
	}
	tables := make([]*form.TableWidget, 0, len(cfg.Tables))
	for i := range cfg.Tables {
		tw, err := form.RenderTable(&cfg.Tables[i], sess, prefix)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to render table: %v", err))
			return
		}
		tables = append(tables, tw)
	}

	httputil.WriteJSONOK(w, &formResponse{
		Subcategory: sub.Name,
		DisplayName: sub.DisplayName,
		General:     generalWidgets,
		Fields:      fieldWidgets,
		Tables:      tables,
	})
}

type submitRequest struct {
	Subcategory string         `json:"subcategory"`
	State       map[string]any `json:"state"`
}

type submitResponse struct {
	Collection string         `json:"collection"`
	Inserted   int            `json:"inserted"`
	Records    []store.Record `json:"records"`
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	sub, ok := s.registry.Lookup(req.Subcategory)
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("unknown subcategory %q", req.Subcategory))
		return
	}
	cfg, err := s.forms.Form(sub.Name)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to load form: %v", err))
		return
	}

	sess := form.NewSession(s.clock)
	sess.LoadState(req.State)
	prefix := form.Prefix(sub.Name)

	// Re-render before assembling: conditions, defaults and per-row unit
	// normalization must apply to client-supplied state too.
	if _, err := form.RenderFields(cfg.AllFields(), sess, prefix); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid form state: %v", err))
		return
	}
	for i := range cfg.Tables {
		if _, err := form.RenderTable(&cfg.Tables[i], sess, prefix); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid table state: %v", err))
			return
		}
	}

	records, err := s.assembler.Assemble(sess, cfg, sub)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to assemble records: %v", err))
		return
	}
	inserted, err := s.assembler.Submit(r.Context(), s.store, sub.PendingCollection, records)
	if err != nil {
		var perr *form.PersistenceError
		if errors.As(err, &perr) {
			httputil.WriteJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("submission failed after %d of %d records: %v", perr.Inserted, len(records), perr.Err))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("submission failed: %v", err))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &submitResponse{
		Collection: sub.PendingCollection,
		Inserted:   inserted,
		Records:    records,
	})
}

func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("subcategory"); name != "" {
		records, err := s.promoter.Pending(r.Context(), name)
		if err != nil {
			s.writeReviewError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string][]store.Record{name: records})
		return
	}

	sector := r.URL.Query().Get("sector")
	subs := s.registry.All()
	if sector != "" {
		subs = s.registry.BySector(sector)
	}
	out := make(map[string][]store.Record, len(subs))
	for _, sub := range subs {
		records, err := s.promoter.Pending(r.Context(), sub.Name)
		if err != nil {
			s.writeReviewError(w, err)
			return
		}
		out[sub.Name] = records
	}
	httputil.WriteJSONOK(w, out)
}

type promoteRequest struct {
	Subcategory string `json:"subcategory"`
	RecordID    string `json:"record_id"`
}

func (s *Server) promote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Subcategory == "" || req.RecordID == "" {
		httputil.BadRequest(w, "subcategory and record_id are required")
		return
	}
	if err := s.promoter.Promote(r.Context(), req.Subcategory, req.RecordID); err != nil {
		s.writeReviewError(w, err)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"subcategory": req.Subcategory,
		"record_id":   req.RecordID,
		"status":      store.StatusValidated,
	})
}

func (s *Server) showContact(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("subcategory")
	id := r.URL.Query().Get("id")
	if name == "" || id == "" {
		httputil.BadRequest(w, "subcategory and id are required")
		return
	}
	contact, err := s.promoter.ContactDetails(r.Context(), name, id)
	if err != nil {
		s.writeReviewError(w, err)
		return
	}
	httputil.WriteJSONOK(w, contact)
}

// writeReviewError maps the review error taxonomy onto HTTP statuses.
func (s *Server) writeReviewError(w http.ResponseWriter, err error) {
	var (
		notFound *review.NotFoundError
		stale    *review.StaleStateError
		invalid  *review.ValidationError
	)
	switch {
	case errors.Is(err, review.ErrUnknownSubcategory):
		httputil.NotFound(w, err.Error())
	case errors.As(err, &notFound):
		httputil.NotFound(w, err.Error())
	case errors.As(err, &stale):
		httputil.Conflict(w, err.Error())
	case errors.As(err, &invalid):
		httputil.WriteJSONError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func (s *Server) showCollation(w http.ResponseWriter, r *http.Request) {
	now := s.clock.Now().Year()
	fromYear, toYear := now-s.collationSpan, now
	if v, err := strconv.Atoi(r.URL.Query().Get("from")); err == nil {
		fromYear = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("to")); err == nil {
		toYear = v
	}
	sector := r.URL.Query().Get("sector")

	rows, err := s.collator.Collate(r.Context(), sector, fromYear, toYear)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("collation failed: %v", err))
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		filename := "collation"
		if sector != "" {
			filename += "_" + sector
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%s.csv", security.SanitizeFilename(filename)))
		if err := collate.WriteCSV(w, rows, fromYear, toYear); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to write csv: %v", err))
		}
		return
	}
	httputil.WriteJSONOK(w, rows)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	subcategories := map[string][]string{}
	for _, sector := range inventory.Sectors {
		for _, sub := range s.registry.BySector(sector) {
			subcategories[sector] = append(subcategories[sector], sub.Name)
		}
	}
	httputil.WriteJSONOK(w, map[string]any{
		"version":       version.Version,
		"baseline_year": s.baselineYear,
		"sectors":       inventory.Sectors,
		"subcategories": subcategories,
	})
}
