package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/models"
	"splitbook/internal/pagination"
	"splitbook/internal/services"
)

// LedgerHandler handles ledger-related requests.
type LedgerHandler struct {
	ledgerService services.LedgerServicer
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService services.LedgerServicer) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// CreateLedgerRequest represents the request payload for creating a ledger.
type CreateLedgerRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// AddMemberRequest represents the request payload for adding a ledger member.
type AddMemberRequest struct {
	UserID uint              `json:"user_id" binding:"required"`
	Role   models.LedgerRole `json:"role" binding:"omitempty,oneof=admin member"`
}

// CreateLedger handles the creation of a new ledger.
// @Summary     Create a ledger
// @Description Create a new shared ledger; the creator becomes its admin
// @Tags        ledgers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLedgerRequest true "Ledger details"
// @Success     201 {object} models.Ledger "Ledger created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledgers [post]
func (h *LedgerHandler) CreateLedger(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	ledger, err := h.ledgerService.CreateLedger(userID, req.Name, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ledger": ledger})
}

// GetLedgers handles listing the authenticated user's ledgers.
// @Summary     Get ledgers
// @Description Get a paginated list of ledgers the user belongs to
// @Tags        ledgers
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Ledger] "Paginated ledgers"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledgers [get]
func (h *LedgerHandler) GetLedgers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.ledgerService.GetUserLedgers(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLedger handles fetching a single ledger.
// @Summary     Get a ledger
// @Description Get a ledger with its members
// @Tags        ledgers
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Ledger ID"
// @Success     200 {object} models.Ledger "Ledger"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "No access"
// @Failure     404 {object} ErrorResponse "Ledger not found"
// @Router      /ledgers/{id} [get]
func (h *LedgerHandler) GetLedger(c *gin.Context) {
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

	ledger, err := h.ledgerService.GetLedgerByID(userID, ledgerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ledger": ledger})
}

// AddMember handles adding a user to a ledger.
// @Summary     Add a ledger member
// @Description Add another user to a ledger (admin only)
// @Tags        ledgers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int              true "Ledger ID"
// @Param       request body AddMemberRequest true "Member to add"
// @Success     201 {object} map[string]interface{} "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not an admin"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /ledgers/{id}/members [post]
func (h *LedgerHandler) AddMember(c *gin.Context) {
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

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	role := req.Role
	if role == "" {
		role = models.LedgerRoleMember
	}

	if err := h.ledgerService.AddMember(userID, ledgerID, req.UserID, role); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Member added"})
}
