package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleetdash/internal/functions"
	"github.com/ukydev/fleetdash/internal/validation"
)

// FunctionsHandler serves /functions/v1. Every response carries a success
// flag.
type FunctionsHandler struct {
	service *functions.Service
}

// NewFunctionsHandler creates a functions handler.
func NewFunctionsHandler(service *functions.Service) *FunctionsHandler {
	return &FunctionsHandler{service: service}
}

type functionError struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Fields  validation.Errors `json:"fields,omitempty"`
}

func writeFunctionError(w http.ResponseWriter, status int, msg string, fields validation.Errors) {
	writeJSON(w, status, functionError{Error: msg, Fields: fields})
}

// CreateDriver creates a driver login and returns its temporary password.
func (h *FunctionsHandler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var req functions.CreateDriverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFunctionError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	result, err := h.service.CreateDriver(r.Context(), req)
	if err != nil {
		var verrs validation.Errors
		switch {
		case errors.As(err, &verrs):
			writeFunctionError(w, http.StatusBadRequest, "Validation failed", verrs)
		case errors.Is(err, functions.ErrEmailTaken):
			writeFunctionError(w, http.StatusConflict, err.Error(), nil)
		default:
			log.WithError(err).Error("create-driver failed")
			writeFunctionError(w, http.StatusInternalServerError, err.Error(), nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*functions.CreateDriverResult
	}{true, result})
}

// SeedTestAccounts creates the demo accounts. Accounts that already exist
// are reported and left untouched.
func (h *FunctionsHandler) SeedTestAccounts(w http.ResponseWriter, r *http.Request) {
	results := h.service.SeedTestAccounts(r.Context())
	success := true
	for _, res := range results {
		if res.Status == functions.SeedFailed {
			success = false
		}
	}
	status := http.StatusOK
	if !success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, struct {
		Success bool                   `json:"success"`
		Results []functions.SeedResult `json:"results"`
	}{success, results})
}
