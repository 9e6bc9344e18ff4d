package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/models"
	"splitbook/internal/pagination"
	"splitbook/internal/services"
)

// BudgetHandler handles budget and budget-alert requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	alertService  services.AlertServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, alertService services.AlertServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, alertService: alertService}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	LedgerID       uint                    `json:"ledger_id" binding:"required"`
	Name           string                  `json:"name" binding:"required,min=1,max=100"`
	Amount         float64                 `json:"amount" binding:"required,gt=0"`
	Category       string                  `json:"category" binding:"max=100"`
	PeriodType     models.BudgetPeriodType `json:"period_type" binding:"required,period_type"`
	StartDate      time.Time               `json:"start_date" binding:"required"`
	EndDate        time.Time               `json:"end_date" binding:"required"`
	AlertThreshold *float64                `json:"alert_threshold" binding:"omitempty,min=0,max=1"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Name           *string                  `json:"name" binding:"omitempty,min=1,max=100"`
	Amount         *float64                 `json:"amount" binding:"omitempty,gt=0"`
	Category       *string                  `json:"category" binding:"omitempty,max=100"`
	PeriodType     *models.BudgetPeriodType `json:"period_type" binding:"omitempty,period_type"`
	StartDate      *time.Time               `json:"start_date"`
	EndDate        *time.Time               `json:"end_date"`
	Status         *models.BudgetStatus     `json:"status" binding:"omitempty,budget_status"`
	AlertThreshold *float64                 `json:"alert_threshold" binding:"omitempty,min=0,max=1"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a budget; its spent total is seeded from bills already in the range
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(
		userID, req.LedgerID, req.Name, req.Amount, req.Category,
		req.PeriodType, req.StartDate, req.EndDate, req.AlertThreshold,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetBudgets handles listing a ledger's budgets with the ledger's stats.
// @Summary     Get budgets
// @Description Get a paginated list of a ledger's budgets plus its budget stats
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       ledger_id query int    true  "Ledger ID"
// @Param       status    query string false "Status filter (active/paused/completed/expired)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} map[string]interface{} "Budgets and stats"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		LedgerID uint `form:"ledger_id" binding:"required"`
		pagination.PageRequest
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.BudgetStatus
	if v := c.Query("status"); v != "" {
		s := models.BudgetStatus(v)
		switch s {
		case models.BudgetStatusActive, models.BudgetStatusPaused,
			models.BudgetStatusCompleted, models.BudgetStatusExpired:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid status"))
			return
		}
	}

	result, err := h.budgetService.GetLedgerBudgets(userID, query.LedgerID, query.PageRequest, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.budgetService.GetBudgetStats(userID, query.LedgerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": result, "stats": stats})
}

// GetBudget handles fetching a single budget.
// @Summary     Get a budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating a budget.
// @Summary     Update a budget
// @Description Update a budget; cap/range/category changes recompute the spent total
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                 true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to update"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, services.BudgetUpdate{
		Name:           req.Name,
		Amount:         req.Amount,
		Category:       req.Category,
		PeriodType:     req.PeriodType,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         req.Status,
		AlertThreshold: req.AlertThreshold,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget and its alerts.
// @Summary     Delete a budget
// @Description Delete a budget; its alerts are removed with it
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} map[string]interface{} "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted"})
}

// GetBudgetProgress handles the single-budget progress view.
// @Summary     Get budget progress
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} services.BudgetProgress "Progress"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// RecalculateBudget handles forcing a full recompute of one budget.
// @Summary     Recalculate a budget
// @Description Re-derive the budget's spent total from the bills table
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} models.Budget "Recalculated budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/recalculate [post]
func (h *BudgetHandler) RecalculateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.RecalculateBudget(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudgetStats handles the ledger-wide budget stats rollup.
// @Summary     Get budget stats
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Ledger ID"
// @Success     200 {object} services.BudgetStats "Stats"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Router      /budgets/ledger/{id}/stats [get]
func (h *BudgetHandler) GetBudgetStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledgerID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.budgetService.GetBudgetStats(userID, ledgerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetBudgetSummary handles the composed summary view.
// @Summary     Get budget summary
// @Description Active budgets bucketed by period type, plus unread alerts and stats
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Ledger ID"
// @Success     200 {object} services.BudgetSummary "Summary"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Router      /budgets/ledger/{id}/summary [get]
func (h *BudgetHandler) GetBudgetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledgerID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.budgetService.GetBudgetSummary(userID, ledgerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetBudgetAlerts handles listing a ledger's budget alerts.
// @Summary     Get budget alerts
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id          path  int  true  "Ledger ID"
// @Param       unread_only query bool false "Only alerts not yet marked sent"
// @Success     200 {object} map[string]interface{} "Alerts"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Router      /budgets/ledger/{id}/alerts [get]
func (h *BudgetHandler) GetBudgetAlerts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledgerID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	unreadOnly := c.Query("unread_only") == "true"

	alerts, err := h.alertService.GetLedgerAlerts(userID, ledgerID, unreadOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// MarkAlertSent handles flipping an alert's delivery acknowledgement.
// @Summary     Mark an alert as sent
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Alert ID"
// @Success     200 {object} map[string]interface{} "Alert marked"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Router      /budgets/alerts/{id}/mark-sent [post]
func (h *BudgetHandler) MarkAlertSent(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	alertID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.alertService.MarkSent(alertID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Alert marked as sent"})
}
