package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/budget-tracker/internal/middleware"
	"github.com/Dan9191/budget-tracker/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Handler exposes the service over HTTP JSON
type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type authRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type transactionRequest struct {
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Type        *string  `json:"type"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
}

func (r transactionRequest) toInput() service.TransactionInput {
	return service.TransactionInput{
		Amount:      r.Amount,
		Category:    r.Category,
		Type:        r.Type,
		Date:        r.Date,
		Description: r.Description,
	}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.svc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":  user.Summary(),
		"token": token,
	})
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user.Summary(),
		"token": token,
	})
}

// AddTransaction creates a transaction owned by the authenticated user
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.svc.AddTransaction(userID, req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, tx)
}

// GetTransactions lists the authenticated user's transactions, most recent
// first
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	transactions, err := h.svc.ListTransactions(userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, transactions)
}

// UpdateTransaction applies a partial update to one of the authenticated
// user's transactions
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.svc.UpdateTransaction(userID, id, req.toInput())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    tx,
	})
}

// DeleteTransaction removes one of the authenticated user's transactions
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	if err := h.svc.DeleteTransaction(userID, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Transaction deleted",
	})
}

// MonthlyStats returns 12 income/expense rows for the requested year
func (h *Handler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	stats, err := h.svc.MonthlyStats(userID, yearParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// YearlyStats returns income/expense rows for every year with data
func (h *Handler) YearlyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	stats, err := h.svc.YearlyStats(userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// CategoryTrendsMonthly returns 12 per-category pivot rows for the
// requested year
func (h *Handler) CategoryTrendsMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	rows, err := h.svc.CategoryTrendsMonthly(userID, yearParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rows)
}

// CategoryTrendsYearly returns per-category pivot rows for every year with
// data
func (h *Handler) CategoryTrendsYearly(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	rows, err := h.svc.CategoryTrendsYearly(userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rows)
}

// yearParam reads the optional ?year= query parameter; 0 lets the service
// default to the current year
func yearParam(r *http.Request) int {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0
	}
	return year
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps the service error taxonomy to HTTP statuses. Store
// failures are logged and surfaced as a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, service.ErrEmailTaken):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
	}
}
