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

// BillHandler handles bill-related requests.
type BillHandler struct {
	billService services.BillServicer
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(billService services.BillServicer) *BillHandler {
	return &BillHandler{billService: billService}
}

// CreateBillRequest represents the request payload for creating a bill.
type CreateBillRequest struct {
	LedgerID    uint            `json:"ledger_id" binding:"required"`
	Amount      float64         `json:"amount" binding:"required,gt=0"`
	Type        models.BillType `json:"type" binding:"required,bill_type"`
	Category    string          `json:"category" binding:"max=100"`
	Description string          `json:"description" binding:"max=500"`
	Date        time.Time       `json:"date" binding:"required"`
}

// UpdateBillRequest represents the request payload for updating a bill.
type UpdateBillRequest struct {
	Amount      *float64         `json:"amount" binding:"omitempty,gt=0"`
	Type        *models.BillType `json:"type" binding:"omitempty,bill_type"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Date        *time.Time       `json:"date"`
}

// CreateBill handles the creation of a new bill.
// @Summary     Create a bill
// @Description Record an income or expense bill; budgets covering it are updated in the same transaction
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBillRequest true "Bill details"
// @Success     201 {object} models.Bill "Bill created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /bills [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	bill, err := h.billService.CreateBill(userID, req.LedgerID, req.Amount, req.Type, req.Category, req.Description, req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bill": bill})
}

// GetBills handles listing a ledger's bills.
// @Summary     Get bills
// @Description Get a paginated list of a ledger's bills with optional filters
// @Tags        bills
// @Produce     json
// @Security    BearerAuth
// @Param       ledger_id query int    true  "Ledger ID"
// @Param       from      query string false "Start date (RFC 3339)"
// @Param       to        query string false "End date (RFC 3339)"
// @Param       type      query string false "Bill type (expense/income)"
// @Param       category  query string false "Category filter"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Bill] "Paginated bills"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Router      /bills [get]
func (h *BillHandler) GetBills(c *gin.Context) {
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

	var filter services.BillFilter
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid from date"))
			return
		}
		filter.FromDate = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid to date"))
			return
		}
		filter.ToDate = &t
	}
	if v := c.Query("type"); v != "" {
		bt := models.BillType(v)
		if bt != models.BillTypeExpense && bt != models.BillTypeIncome {
			respondWithError(c, apperrors.ErrInvalidBillType)
			return
		}
		filter.Type = &bt
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}

	result, err := h.billService.GetLedgerBills(userID, query.LedgerID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBill handles fetching a single bill.
// @Summary     Get a bill
// @Tags        bills
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Bill ID"
// @Success     200 {object} models.Bill "Bill"
// @Failure     403 {object} ErrorResponse "No ledger access"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Router      /bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.GetBillByID(userID, billID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

// UpdateBill handles updating a bill.
// @Summary     Update a bill
// @Description Update a bill; all budgets the old or new row could affect are recomputed
// @Tags        bills
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int               true "Bill ID"
// @Param       request body UpdateBillRequest true "Fields to update"
// @Success     200 {object} models.Bill "Updated bill"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Router      /bills/{id} [put]
func (h *BillHandler) UpdateBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	bill, err := h.billService.UpdateBill(userID, billID, services.BillUpdate{
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

// DeleteBill handles deleting a bill.
// @Summary     Delete a bill
// @Description Delete a bill; budgets that covered it are recomputed
// @Tags        bills
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Bill ID"
// @Success     200 {object} map[string]interface{} "Bill deleted"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Router      /bills/{id} [delete]
func (h *BillHandler) DeleteBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	billID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.billService.DeleteBill(userID, billID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted"})
}
