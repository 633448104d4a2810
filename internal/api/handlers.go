// Package api serves a read-only JSON view of one parsed dump.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/DumpMigration/internal/dump"
	"github.com/JonMunkholm/DumpMigration/internal/schema"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db          *dump.Database
	schema      *schema.Schema
	source      string
	rateLimiter *RateLimiter
}

// NewHandler creates a handler over db. source names the dump file and is
// reported by the tables endpoint.
func NewHandler(db *dump.Database, source string) *Handler {
	return &Handler{
		db:          db,
		schema:      schema.FromDump(db),
		source:      source,
		rateLimiter: NewRateLimiter(100, time.Minute), // 100 requests per minute
	}
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/schema", h.handleGetSchema)
	apiMux.HandleFunc("GET /api/types", h.handleGetTypes)
	apiMux.HandleFunc("GET /api/tables", h.handleListTables)
	apiMux.HandleFunc("GET /api/tables/{tableName}/rows", h.handleGetRows)

	// Apply middleware chain: body limit -> rate limiting
	mux.Handle("/api/", LimitBodySize(h.rateLimiter.Wrap(apiMux), 1<<20))
}

// Stop stops background goroutines. Should be called on graceful shutdown.
func (h *Handler) Stop() {
	h.rateLimiter.Stop()
}

// API Response types for consistent format
type apiResponse[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for API responses
const (
	ErrInvalidRequest = "INVALID_REQUEST"
	ErrUnknownTable   = "UNKNOWN_TABLE"
)

// respondJSON sends a successful JSON response with type-safe data
func respondJSON[T any](w http.ResponseWriter, data T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	resp := apiResponse[T]{Success: true, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// errorResponse is the response type for errors (no data field)
type errorResponse struct {
	Success bool      `json:"success"`
	Error   *apiError `json:"error,omitempty"`
}

// respondError sends an error JSON response
func respondError(w http.ResponseWriter, code, message string, status int) {
	slog.Debug("API error", "code", code, "message", message, "status", status)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	resp := errorResponse{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.schema)
}

type typesData struct {
	Types []schema.TypeInfo `json:"types"`
}

func (h *Handler) handleGetTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, typesData{Types: schema.AllowedTypes})
}

type tableSummary struct {
	Name     string `json:"name"`
	Columns  int    `json:"columns"`
	RowCount int    `json:"rowCount"`
}

type tablesData struct {
	Source string         `json:"source"`
	Tables []tableSummary `json:"tables"`
}

func (h *Handler) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables := make([]tableSummary, 0, len(h.schema.Tables))
	for _, t := range h.schema.Tables {
		tables = append(tables, tableSummary{Name: t.Name, Columns: len(t.Columns), RowCount: t.RowCount})
	}
	respondJSON(w, tablesData{Source: h.source, Tables: tables})
}

type rowsData struct {
	Table   string     `json:"table"`
	Columns []string   `json:"columns"`
	Offset  int        `json:"offset"`
	Limit   int        `json:"limit"`
	Total   int        `json:"total"`
	Rows    []dump.Row `json:"rows"`
}

func (h *Handler) handleGetRows(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tableName")
	table, ok := h.db.Table(name)
	if !ok {
		respondError(w, ErrUnknownTable, "Table not found", http.StatusNotFound)
		return
	}

	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		respondError(w, ErrInvalidRequest, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}
	limit, ok := queryInt(r, "limit", defaultPageSize)
	if !ok || limit <= 0 || limit > maxPageSize {
		respondError(w, ErrInvalidRequest, "limit must be between 1 and 500", http.StatusBadRequest)
		return
	}

	columns := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		columns[i] = c.Name
	}

	start := min(offset, len(table.Rows))
	end := min(start+limit, len(table.Rows))

	respondJSON(w, rowsData{
		Table:   table.Name,
		Columns: columns,
		Offset:  offset,
		Limit:   limit,
		Total:   len(table.Rows),
		Rows:    table.Rows[start:end],
	})
}

// queryInt reads an integer query parameter, returning fallback when absent.
func queryInt(r *http.Request, key string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
