package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/validation"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		zero    bool
		wantErr bool
	}{
		{in: `"2026-10-19"`, want: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)},
		{in: `"2026-10-19T08:30:00Z"`, want: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)},
		{in: `"2026-10-19T10:30:00+02:00"`, want: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)},
		{in: `"2026-10-19T08:30"`, want: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)},
		{in: `null`, zero: true},
		{in: `""`, zero: true},
		{in: `"19/10/2026"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.zero {
				assert.Nil(t, d.Ptr())
				return
			}
			assert.True(t, d.Equal(tt.want), "got %s", d.Time)
		})
	}
}

func TestDate_PtrAndOr(t *testing.T) {
	var missing *Date
	def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, missing.Ptr())
	assert.Equal(t, def, missing.Or(def))

	set := &Date{Time: time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, set.Time, set.Or(def))
}

func TestWriteStoreError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("find: %w", db.ErrNotFound), http.StatusNotFound, "Trip not found"},
		{db.ErrInvalidID, http.StatusBadRequest, "Invalid trip id"},
		{db.ErrDuplicate, http.StatusConflict, "Trip already exists"},
		{validation.Errors{"route_name": "is required"}, http.StatusBadRequest, "Validation failed"},
		{errors.New("connection reset"), http.StatusInternalServerError, "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeStoreError(w, httptest.NewRequest("GET", "/api/trips", nil), tt.err, "trip")
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.msg, decode[errorBody](t, w).Error)
		})
	}
}
