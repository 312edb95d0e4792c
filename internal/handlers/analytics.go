package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/analytics"
	"github.com/ukydev/fleetdash/internal/db"
	"github.com/ukydev/fleetdash/internal/report"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalyticsHandler serves the aggregated dashboard metrics and the report
// exports built from them.
type AnalyticsHandler struct {
	source   analytics.Source
	geometry report.Geometry
	now      func() time.Time
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(source analytics.Source) *AnalyticsHandler {
	return &AnalyticsHandler{source: source, geometry: report.A4, now: time.Now}
}

type metricsResponse struct {
	analytics.MetricsView
	Errors []string `json:"errors,omitempty"`
}

// Metrics aggregates every collection. Collections that fail to load count
// as empty and are listed under errors.
func (h *AnalyticsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	in, errs := analytics.Collect(r.Context(), h.source)
	resp := metricsResponse{MetricsView: analytics.Aggregate(in, h.now())}
	for _, err := range errs {
		log.WithError(err).Warn("Analytics: partial data")
		resp.Errors = append(resp.Errors, err.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

const (
	formatPDF  = "pdf"
	formatXLSX = "xlsx"

	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Report renders a PDF or XLSX export. Query: format, kind, from, to,
// vehicle_id.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = formatPDF
	}
	if format != formatPDF && format != formatXLSX {
		writeError(w, http.StatusBadRequest, "format must be pdf or xlsx")
		return
	}

	filters := report.Filters{Kind: report.Kind(q.Get("kind"))}
	if filters.Kind == "" {
		filters.Kind = report.KindFleet
	}
	if !report.IsValidKind(filters.Kind) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown report kind %q", filters.Kind))
		return
	}
	var err error
	if filters.From, _, err = parseDateParam(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, dateOnly, err := parseDateParam(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters.To = to
	if dateOnly {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	var vehicleID *primitive.ObjectID
	if id := q.Get("vehicle_id"); id != "" {
		oid, err := db.ParseID(id)
		if err != nil {
			writeStoreError(w, r, err, "vehicle")
			return
		}
		vehicleID = &oid
		filters.VehicleID = id
	}

	in, errs := analytics.Collect(r.Context(), h.source)
	for _, err := range errs {
		log.WithError(err).Warn("Report: partial data")
	}
	in = in.Restrict(vehicleID, filters.From, to)
	if vehicleID != nil && len(in.Vehicles) == 1 {
		filters.VehiclePlate = in.Vehicles[0].LicensePlate
	}

	now := h.now()
	doc := report.Format(analytics.Aggregate(in, now), in, filters)

	var buf bytes.Buffer
	contentType := contentTypePDF
	if format == formatXLSX {
		contentType = contentTypeXLSX
		err = report.RenderXLSX(&buf, doc)
	} else {
		err = report.RenderPDF(&buf, doc, report.Layout(doc, h.geometry), h.geometry)
	}
	if err != nil {
		log.WithError(err).WithField("kind", filters.Kind).Error("Failed to render report")
		writeError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	filename := fmt.Sprintf("fleetdash-%s-report-%s.%s", filters.Kind, now.Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.WithError(err).Warn("Failed to write report")
	}
}

// parseDateParam parses an optional query date and reports whether it was a
// bare calendar date.
func parseDateParam(s string) (time.Time, bool, error) {
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), false, nil
}
