package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/middleware"
	"github.com/ukydev/fleetdash/internal/validation"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields validation.Errors `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeStoreError maps a storage or validation error onto a response.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, what string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Validation failed", Fields: verrs})
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, capitalize(what)+" not found")
	case errors.Is(err, db.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "Invalid "+what+" id")
	case errors.Is(err, db.ErrDuplicate):
		writeError(w, http.StatusConflict, capitalize(what)+" already exists")
	default:
		log.WithError(err).WithFields(log.Fields{
			"resource":   what,
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Error("Storage operation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.New("invalid JSON")
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Date accepts either a calendar date (2006-01-02) or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// Ptr returns nil for a missing or zero date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// Or returns the date, or def when it is missing.
func (d *Date) Or(def time.Time) time.Time {
	if p := d.Ptr(); p != nil {
		return *p
	}
	return def
}
