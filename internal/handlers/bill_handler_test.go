package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "splitbook/internal/errors"
	"splitbook/internal/models"
	"splitbook/internal/pagination"
	"splitbook/internal/services"
)

// --- mock bill service ---

type mockBillService struct {
	createBillFn     func(userID, ledgerID uint, amount float64, billType models.BillType, category, description string, date time.Time) (*models.Bill, error)
	getLedgerBillsFn func(userID, ledgerID uint, page pagination.PageRequest, filter services.BillFilter) (*pagination.PageResponse[models.Bill], error)
	getBillByIDFn    func(userID, billID uint) (*models.Bill, error)
	updateBillFn     func(userID, billID uint, upd services.BillUpdate) (*models.Bill, error)
	deleteBillFn     func(userID, billID uint) error
}

func (m *mockBillService) CreateBill(userID, ledgerID uint, amount float64, billType models.BillType, category, description string, date time.Time) (*models.Bill, error) {
	if m.createBillFn != nil {
		return m.createBillFn(userID, ledgerID, amount, billType, category, description, date)
	}
	return &models.Bill{}, nil
}

func (m *mockBillService) GetLedgerBills(userID, ledgerID uint, page pagination.PageRequest, filter services.BillFilter) (*pagination.PageResponse[models.Bill], error) {
	if m.getLedgerBillsFn != nil {
		return m.getLedgerBillsFn(userID, ledgerID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Bill{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBillService) GetBillByID(userID, billID uint) (*models.Bill, error) {
	if m.getBillByIDFn != nil {
		return m.getBillByIDFn(userID, billID)
	}
	return &models.Bill{}, nil
}

func (m *mockBillService) UpdateBill(userID, billID uint, upd services.BillUpdate) (*models.Bill, error) {
	if m.updateBillFn != nil {
		return m.updateBillFn(userID, billID, upd)
	}
	return &models.Bill{}, nil
}

func (m *mockBillService) DeleteBill(userID, billID uint) error {
	if m.deleteBillFn != nil {
		return m.deleteBillFn(userID, billID)
	}
	return nil
}

var _ services.BillServicer = (*mockBillService)(nil)

func setupBillRouter(handler *BillHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/bills", handler.CreateBill)
	auth.GET("/bills", handler.GetBills)
	auth.GET("/bills/:id", handler.GetBill)
	auth.PUT("/bills/:id", handler.UpdateBill)
	auth.DELETE("/bills/:id", handler.DeleteBill)
	return r
}

func TestBillHandler_CreateBill(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockBillService{
			createBillFn: func(_, ledgerID uint, amount float64, billType models.BillType, category, _ string, _ time.Time) (*models.Bill, error) {
				return &models.Bill{
					Base:     models.Base{ID: 1},
					LedgerID: ledgerID,
					Amount:   amount,
					Type:     billType,
					Category: category,
				}, nil
			},
		}
		handler := NewBillHandler(svc)
		r := setupBillRouter(handler)

		rec := doRequest(r, "POST", "/bills",
			`{"ledger_id":1,"amount":42.5,"type":"expense","category":"dining","date":"2024-01-15T00:00:00Z"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		bill := result["bill"].(map[string]interface{})
		if bill["amount"].(float64) != 42.5 {
			t.Errorf("expected amount 42.5, got %v", bill["amount"])
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		handler := NewBillHandler(&mockBillService{})
		r := setupBillRouter(handler)

		rec := doRequest(r, "POST", "/bills",
			`{"ledger_id":1,"amount":42.5,"type":"transfer","date":"2024-01-15T00:00:00Z"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on non-positive amount", func(t *testing.T) {
		handler := NewBillHandler(&mockBillService{})
		r := setupBillRouter(handler)

		rec := doRequest(r, "POST", "/bills",
			`{"ledger_id":1,"amount":-5,"type":"expense","date":"2024-01-15T00:00:00Z"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 403 without ledger access", func(t *testing.T) {
		svc := &mockBillService{
			createBillFn: func(_, _ uint, _ float64, _ models.BillType, _, _ string, _ time.Time) (*models.Bill, error) {
				return nil, apperrors.ErrLedgerAccessDenied
			},
		}
		handler := NewBillHandler(svc)
		r := setupBillRouter(handler)

		rec := doRequest(r, "POST", "/bills",
			`{"ledger_id":9,"amount":10,"type":"expense","date":"2024-01-15T00:00:00Z"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestBillHandler_GetBills(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.BillFilter
		svc := &mockBillService{
			getLedgerBillsFn: func(_, _ uint, _ pagination.PageRequest, filter services.BillFilter) (*pagination.PageResponse[models.Bill], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Bill{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewBillHandler(svc)
		r := setupBillRouter(handler)

		rec := doRequest(r, "GET", "/bills?ledger_id=1&type=expense&category=dining&from=2024-01-01T00:00:00Z&to=2024-01-31T00:00:00Z", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.BillTypeExpense {
			t.Errorf("expected expense filter, got %v", gotFilter.Type)
		}
		if gotFilter.Category == nil || *gotFilter.Category != "dining" {
			t.Errorf("expected dining filter, got %v", gotFilter.Category)
		}
		if gotFilter.FromDate == nil || gotFilter.ToDate == nil {
			t.Error("expected date range filter set")
		}
	})

	t.Run("returns 400 without ledger_id", func(t *testing.T) {
		handler := NewBillHandler(&mockBillService{})
		r := setupBillRouter(handler)

		rec := doRequest(r, "GET", "/bills", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad type filter", func(t *testing.T) {
		handler := NewBillHandler(&mockBillService{})
		r := setupBillRouter(handler)

		rec := doRequest(r, "GET", "/bills?ledger_id=1&type=transfer", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_BILL_TYPE")
	})

	t.Run("returns 400 on bad from date", func(t *testing.T) {
		handler := NewBillHandler(&mockBillService{})
		r := setupBillRouter(handler)

		rec := doRequest(r, "GET", "/bills?ledger_id=1&from=yesterday", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBillHandler_UpdateBill(t *testing.T) {
	t.Run("passes fields through", func(t *testing.T) {
		var gotUpd services.BillUpdate
		svc := &mockBillService{
			updateBillFn: func(_, _ uint, upd services.BillUpdate) (*models.Bill, error) {
				gotUpd = upd
				return &models.Bill{Base: models.Base{ID: 1}}, nil
			},
		}
		handler := NewBillHandler(svc)
		r := setupBillRouter(handler)

		rec := doRequest(r, "PUT", "/bills/1", `{"amount":99.9,"category":"transport"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUpd.Amount == nil || *gotUpd.Amount != 99.9 {
			t.Errorf("expected amount 99.9, got %v", gotUpd.Amount)
		}
		if gotUpd.Category == nil || *gotUpd.Category != "transport" {
			t.Errorf("expected transport category, got %v", gotUpd.Category)
		}
		if gotUpd.Date != nil {
			t.Errorf("expected nil date, got %v", *gotUpd.Date)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockBillService{
			updateBillFn: func(_, _ uint, _ services.BillUpdate) (*models.Bill, error) {
				return nil, apperrors.ErrBillNotFound
			},
		}
		handler := NewBillHandler(svc)
		r := setupBillRouter(handler)

		rec := doRequest(r, "PUT", "/bills/42", `{"amount":10}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestBillHandler_DeleteBill(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewBillHandler(&mockBillService{})
		r := setupBillRouter(handler)

		rec := doRequest(r, "DELETE", "/bills/1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockBillService{
			deleteBillFn: func(_, _ uint) error {
				return apperrors.ErrBillNotFound
			},
		}
		handler := NewBillHandler(svc)
		r := setupBillRouter(handler)

		rec := doRequest(r, "DELETE", "/bills/42", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
