/**
 * @description
 * This file contains the HTTP handlers for the benefit-service's API endpoints.
 * Handlers parse incoming requests, call the application service, and map each
 * error kind to an HTTP status. They are the bridge between the web layer and
 * the business logic layer; no business rule lives here.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store: For service logic, models, and errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/beneflow/benefit-service/internal/app"
	"github.com/beneflow/benefit-service/internal/domain"
	"github.com/beneflow/benefit-service/internal/store"
)

// BenefitHandlers holds the application service that handlers will use.
type BenefitHandlers struct {
	service *app.Service
}

// NewBenefitHandlers creates a new instance of BenefitHandlers.
func NewBenefitHandlers(service *app.Service) *BenefitHandlers {
	return &BenefitHandlers{service: service}
}

// apiResponse is the generic envelope used by every endpoint except the raw
// pagination payload.
type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ListBenefitsHandler returns every benefit without pagination.
func (h *BenefitHandlers) ListBenefitsHandler(w http.ResponseWriter, r *http.Request) {
	benefits, err := h.service.ListBenefits(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=list_benefits msg=\"list failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list benefits")
		return
	}
	if benefits == nil {
		benefits = []domain.Benefit{}
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Benefits retrieved successfully", Data: benefits})
}

// PaginateBenefitsHandler answers filtered, paginated queries. Every filter
// parameter is optional; absent parameters contribute no constraint.
func (h *BenefitHandlers) PaginateBenefitsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.BenefitFilter{
		Name:        q.Get("name"),
		Description: q.Get("description"),
		Search:      q.Get("search"),
	}

	if raw := strings.TrimSpace(q.Get("value")); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid value filter: %q", raw))
			return
		}
		filter.Balance = &value
	}
	if raw := strings.TrimSpace(q.Get("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid active filter: %q", raw))
			return
		}
		filter.Active = &active
	}

	page := parseIntOrDefault(q.Get("page"), 0)
	size := parseIntOrDefault(q.Get("size"), 10)

	result, err := h.service.PaginateBenefits(r.Context(), filter, page, size)
	if err != nil {
		log.Printf("level=error component=api endpoint=paginate_benefits msg=\"paginate failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to paginate benefits")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// CreateBenefitHandler creates a new benefit.
func (h *BenefitHandlers) CreateBenefitHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBenefitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	benefit, err := h.service.CreateBenefit(r.Context(), req)
	if err != nil {
		if isValidationError(err) || errors.Is(err, app.ErrDuplicateName) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=create_benefit msg=\"create failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Unable to create benefit")
		return
	}
	h.writeJSON(w, http.StatusCreated, apiResponse{Success: true, Message: "Benefit created successfully", Data: benefit})
}

// UpdateBenefitHandler overwrites an existing active benefit.
func (h *BenefitHandlers) UpdateBenefitHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid benefit id")
		return
	}

	var req domain.UpdateBenefitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	benefit, err := h.service.UpdateBenefit(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, store.ErrBenefitNotFound) {
			h.writeError(w, http.StatusNotFound, "Benefit not found or inactive")
			return
		}
		if isValidationError(err) || errors.Is(err, app.ErrDuplicateName) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("level=error component=api endpoint=update_benefit msg=\"update failed\" benefit_id=%d err=%v", id, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to update benefit")
		return
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Benefit updated successfully", Data: benefit})
}

// DeleteBenefitHandler removes a benefit permanently, active or not.
func (h *BenefitHandlers) DeleteBenefitHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid benefit id")
		return
	}

	if err := h.service.DeleteBenefit(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrBenefitNotFound) {
			h.writeError(w, http.StatusNotFound, "Benefit not found")
			return
		}
		log.Printf("level=error component=api endpoint=delete_benefit msg=\"delete failed\" benefit_id=%d err=%v", id, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to delete benefit")
		return
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Benefit deleted successfully", Data: nil})
}

// TransferHandler moves balance between two benefits. The endpoint takes query
// parameters fromId, toId, and amount.
func (h *BenefitHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	fromID, err := strconv.ParseInt(q.Get("fromId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid fromId")
		return
	}
	toID, err := strconv.ParseInt(q.Get("toId"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid toId")
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(q.Get("amount")))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	if err := h.service.Transfer(r.Context(), fromID, toID, amount); err != nil {
		switch {
		case errors.Is(err, app.ErrSourceBenefitNotFound), errors.Is(err, app.ErrDestinationBenefitNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, app.ErrSameBenefitTransfer),
			errors.Is(err, app.ErrInvalidTransferAmount),
			errors.Is(err, app.ErrInsufficientBalance):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, app.ErrTransferRateLimited):
			h.writeError(w, http.StatusTooManyRequests, err.Error())
		default:
			log.Printf("level=error component=api endpoint=transfer msg=\"transfer failed\" from_id=%d to_id=%d err=%v", fromID, toID, err)
			h.writeError(w, http.StatusInternalServerError, "Unable to execute transfer")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Transfer executed successfully", Data: nil})
}

func isValidationError(err error) bool {
	return errors.Is(err, app.ErrNameRequired) ||
		errors.Is(err, app.ErrDescriptionRequired) ||
		errors.Is(err, app.ErrBalanceTooLow)
}

func parseIntOrDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// writeJSON is a helper for writing JSON responses.
func (h *BenefitHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses in the envelope shape.
func (h *BenefitHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, apiResponse{Success: false, Message: message, Data: nil})
}
