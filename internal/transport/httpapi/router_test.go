package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/budgetly/backend/internal/module/assistant"
	"github.com/budgetly/backend/internal/module/export"
	"github.com/budgetly/backend/internal/platform/category"
	"github.com/budgetly/backend/internal/platform/debt"
	"github.com/budgetly/backend/internal/platform/transaction"
	apperrors "github.com/budgetly/backend/internal/shared/errors"
	"github.com/budgetly/backend/internal/transport/httpapi"
	"github.com/budgetly/backend/internal/transport/httpapi/handler"
	"github.com/budgetly/backend/internal/transport/httpapi/middleware"
	"github.com/budgetly/backend/pkg/logger"
)

const ownerID int64 = 7

// MockDebtService is a mock implementation of handler.DebtService
type MockDebtService struct {
	mock.Mock
}

func (m *MockDebtService) CreateDebt(ctx context.Context, ownerID int64, in debt.DebtInput) (*debt.Debt, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Debt), args.Error(1)
}

func (m *MockDebtService) GetDebt(ctx context.Context, ownerID, debtID int64) (*debt.Debt, error) {
	args := m.Called(ctx, ownerID, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Debt), args.Error(1)
}

func (m *MockDebtService) ListDebts(ctx context.Context, ownerID int64) ([]*debt.Summary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*debt.Summary), args.Error(1)
}

func (m *MockDebtService) UpdateDebt(ctx context.Context, ownerID, debtID int64, in debt.DebtInput) (*debt.Debt, error) {
	args := m.Called(ctx, ownerID, debtID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.Debt), args.Error(1)
}

func (m *MockDebtService) DeleteDebt(ctx context.Context, ownerID, debtID int64) error {
	return m.Called(ctx, ownerID, debtID).Error(0)
}

func (m *MockDebtService) AddTransaction(ctx context.Context, ownerID, debtID int64, in debt.TransactionInput) (*debt.DebtTransaction, error) {
	args := m.Called(ctx, ownerID, debtID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.DebtTransaction), args.Error(1)
}

func (m *MockDebtService) UpdateTransaction(ctx context.Context, ownerID, debtID, txID int64, in debt.TransactionInput) (*debt.DebtTransaction, error) {
	args := m.Called(ctx, ownerID, debtID, txID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*debt.DebtTransaction), args.Error(1)
}

func (m *MockDebtService) DeleteTransaction(ctx context.Context, ownerID, debtID, txID int64) error {
	return m.Called(ctx, ownerID, debtID, txID).Error(0)
}

func (m *MockDebtService) ListTransactions(ctx context.Context, ownerID, debtID int64) ([]*debt.DebtTransaction, error) {
	args := m.Called(ctx, ownerID, debtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*debt.DebtTransaction), args.Error(1)
}

func (m *MockDebtService) GetRemainingAmount(ctx context.Context, ownerID, debtID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, ownerID, debtID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockTransactionService is a mock implementation of handler.TransactionService
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) List(ctx context.Context, ownerID int64, filters transaction.Filters) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionService) Get(ctx context.Context, ownerID, id int64) (*transaction.Transaction, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

// MockCategoryService is a mock implementation of handler.CategoryService
type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context, ownerID int64, categoryType *category.Type) ([]*category.Category, error) {
	args := m.Called(ctx, ownerID, categoryType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*category.Category), args.Error(1)
}

// MockAssistantService is a mock implementation of handler.AssistantService
type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Ask(ctx context.Context, ownerID int64, question string) (*assistant.Answer, error) {
	args := m.Called(ctx, ownerID, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assistant.Answer), args.Error(1)
}

type testAPI struct {
	router     http.Handler
	debts      *MockDebtService
	txs        *MockTransactionService
	categories *MockCategoryService
	assistant  *MockAssistantService
}

func noLimit(next http.Handler) http.Handler { return next }

func newTestAPI(t *testing.T, identity func(http.Handler) http.Handler) *testAPI {
	t.Helper()

	api := &testAPI{
		debts:      new(MockDebtService),
		txs:        new(MockTransactionService),
		categories: new(MockCategoryService),
		assistant:  new(MockAssistantService),
	}
	api.router = httpapi.NewRouter(httpapi.Config{
		Logger:             logger.Discard(),
		DebtHandler:        handler.NewDebtHandler(api.debts, export.NewExporter(api.debts)),
		TransactionHandler: handler.NewTransactionHandler(api.txs),
		CategoryHandler:    handler.NewCategoryHandler(api.categories),
		AssistantHandler:   handler.NewAssistantHandler(api.assistant),
		Identity:           identity,
		RateLimit:          noLimit,
	})

	t.Cleanup(func() {
		api.debts.AssertExpectations(t)
		api.txs.AssertExpectations(t)
		api.categories.AssertExpectations(t)
		api.assistant.AssertExpectations(t)
	})
	return api
}

func (api *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	var resp handler.ErrorResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, code, resp.Code)
	assert.NotEmpty(t, resp.Error)
}

var (
	feb1    = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	created = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
)

func TestDebtTransactionRoutes(t *testing.T) {
	t.Run("add payment", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("AddTransaction", mock.Anything, ownerID, int64(10), mock.MatchedBy(func(in debt.TransactionInput) bool {
			return in.Amount.Equal(decimal.NewFromInt(500000)) && in.Kind == debt.KindPayment &&
				in.Description != nil && *in.Description == "February" &&
				in.Date != nil && in.Date.Equal(feb1)
		})).Return(&debt.DebtTransaction{
			ID: 3, OwnerID: ownerID, DebtID: 10, Amount: decimal.NewFromInt(500000), Kind: debt.KindPayment,
			Description: "February", Date: feb1, CreatedAt: created, UpdatedAt: created,
		}, nil)

		w := api.do(t, http.MethodPost, "/api/v1/debts/10/transactions",
			`{"amount":"500000","type":"payment","description":"February","date":"2024-02-01"}`)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp handler.DebtTransactionResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, int64(3), resp.ID)
		assert.Equal(t, "payment", resp.Type)
		assert.Equal(t, "2024-02-01", resp.Date)
		assert.True(t, resp.Amount.Equal(decimal.NewFromInt(500000)))
	})

	t.Run("numeric amount is accepted", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("AddTransaction", mock.Anything, ownerID, int64(10), mock.MatchedBy(func(in debt.TransactionInput) bool {
			return in.Amount.Equal(decimal.NewFromInt(1000000)) && in.Kind == debt.KindIncrease && in.Date == nil && in.Description == nil
		})).Return(&debt.DebtTransaction{ID: 4, DebtID: 10, Amount: decimal.NewFromInt(1000000), Kind: debt.KindIncrease, Date: feb1}, nil)

		w := api.do(t, http.MethodPost, "/api/v1/debts/10/transactions", `{"amount":1000000,"type":"increase"}`)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("thousands separators are accepted", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("AddTransaction", mock.Anything, ownerID, int64(10), mock.MatchedBy(func(in debt.TransactionInput) bool {
			return in.Amount.Equal(decimal.NewFromInt(1500000))
		})).Return(&debt.DebtTransaction{ID: 5, DebtID: 10, Amount: decimal.NewFromInt(1500000), Kind: debt.KindPayment, Date: feb1}, nil)

		w := api.do(t, http.MethodPost, "/api/v1/debts/10/transactions", `{"amount":"1,500,000","type":"payment"}`)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("garbage amount", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		w := api.do(t, http.MethodPost, "/api/v1/debts/10/transactions", `{"amount":"lots","type":"payment"}`)
		assertErrorCode(t, w, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("bad date never reaches the service", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		w := api.do(t, http.MethodPost, "/api/v1/debts/10/transactions",
			`{"amount":"500000","type":"payment","date":"01/02/2024"}`)
		assertErrorCode(t, w, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		w := api.do(t, http.MethodPost, "/api/v1/debts/10/transactions", `{"amount":`)
		assertErrorCode(t, w, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("non numeric debt id", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		w := api.do(t, http.MethodPost, "/api/v1/debts/abc/transactions", `{"amount":"1","type":"payment"}`)
		assertErrorCode(t, w, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("unknown debt", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("AddTransaction", mock.Anything, ownerID, int64(99), mock.Anything).Return(nil, debt.ErrDebtNotFound)

		w := api.do(t, http.MethodPost, "/api/v1/debts/99/transactions", `{"amount":"1","type":"payment"}`)
		assertErrorCode(t, w, http.StatusNotFound, apperrors.ErrCodeNotFound)
	})

	t.Run("storage failure hides the cause", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("AddTransaction", mock.Anything, ownerID, int64(10), mock.Anything).
			Return(nil, apperrors.Storage("failed to add debt transaction", errors.New("pq: connection reset")))

		w := api.do(t, http.MethodPost, "/api/v1/debts/10/transactions", `{"amount":"1","type":"payment"}`)
		assertErrorCode(t, w, http.StatusInternalServerError, apperrors.ErrCodeStorage)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})

	t.Run("update keeps omitted fields", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("UpdateTransaction", mock.Anything, ownerID, int64(10), int64(3), mock.MatchedBy(func(in debt.TransactionInput) bool {
			return in.Description == nil && in.Date == nil && in.Amount.Equal(decimal.NewFromInt(1000000))
		})).Return(&debt.DebtTransaction{ID: 3, DebtID: 10, Amount: decimal.NewFromInt(1000000), Kind: debt.KindPayment, Date: feb1}, nil)

		w := api.do(t, http.MethodPut, "/api/v1/debts/10/transactions/3", `{"amount":"1000000","type":"payment"}`)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("DeleteTransaction", mock.Anything, ownerID, int64(10), int64(3)).Return(nil)

		w := api.do(t, http.MethodDelete, "/api/v1/debts/10/transactions/3", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp handler.MessageResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "debt transaction deleted", resp.Message)
	})

	t.Run("list", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("ListTransactions", mock.Anything, ownerID, int64(10)).Return([]*debt.DebtTransaction{
			{ID: 2, DebtID: 10, Amount: decimal.NewFromInt(500000), Kind: debt.KindIncrease, Date: feb1},
			{ID: 1, DebtID: 10, Amount: decimal.NewFromInt(2000000), Kind: debt.KindPayment, Date: feb1},
		}, nil)

		w := api.do(t, http.MethodGet, "/api/v1/debts/10/transactions", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp handler.DebtTransactionsListResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Transactions, 2)
		assert.Equal(t, "increase", resp.Transactions[0].Type)
	})
}

func TestDebtRoutes(t *testing.T) {
	loan := &debt.Debt{
		ID: 10, OwnerID: ownerID, Name: "Car loan", Amount: decimal.NewFromInt(10000000),
		CreatedAt: created, UpdatedAt: created,
	}

	t.Run("remaining", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("GetRemainingAmount", mock.Anything, ownerID, int64(10)).Return(decimal.NewFromInt(8500000), nil)

		w := api.do(t, http.MethodGet, "/api/v1/debts/10/remaining", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp handler.RemainingResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, int64(10), resp.DebtID)
		assert.True(t, resp.RemainingAmount.Equal(decimal.NewFromInt(8500000)))
		assert.Equal(t, "8,500,000", resp.Formatted)
	})

	t.Run("get includes balances", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("GetDebt", mock.Anything, ownerID, int64(10)).Return(loan, nil)
		api.debts.On("GetRemainingAmount", mock.Anything, ownerID, int64(10)).Return(decimal.NewFromInt(7500000), nil)

		w := api.do(t, http.MethodGet, "/api/v1/debts/10", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp handler.DebtResponse
		decodeBody(t, w, &resp)
		require.NotNil(t, resp.PaidAmount)
		require.NotNil(t, resp.RemainingAmount)
		assert.True(t, resp.PaidAmount.Equal(decimal.NewFromInt(2500000)))
		assert.True(t, resp.RemainingAmount.Equal(decimal.NewFromInt(7500000)))
	})

	t.Run("create", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		due := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
		api.debts.On("CreateDebt", mock.Anything, ownerID, mock.MatchedBy(func(in debt.DebtInput) bool {
			return in.Name == "Car loan" && in.Amount.Equal(decimal.NewFromInt(10000000)) && in.DueDate != nil && in.DueDate.Equal(due)
		})).Return(loan, nil)

		w := api.do(t, http.MethodPost, "/api/v1/debts", `{"name":"Car loan","amount":"10000000","due_date":"2025-12-31"}`)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("list", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("ListDebts", mock.Anything, ownerID).Return([]*debt.Summary{{
			Debt:            *loan,
			PaidAmount:      decimal.NewFromInt(2000000),
			RemainingAmount: decimal.NewFromInt(8000000),
		}}, nil)

		w := api.do(t, http.MethodGet, "/api/v1/debts", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp handler.DebtsListResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Debts, 1)
		assert.True(t, resp.Debts[0].RemainingAmount.Equal(decimal.NewFromInt(8000000)))
	})

	t.Run("delete", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("DeleteDebt", mock.Anything, ownerID, int64(10)).Return(nil)

		w := api.do(t, http.MethodDelete, "/api/v1/debts/10", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("export csv", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("ListTransactions", mock.Anything, ownerID, int64(10)).Return([]*debt.DebtTransaction{
			{ID: 1, DebtID: 10, Amount: decimal.NewFromInt(2000000), Kind: debt.KindPayment, Description: "first", Date: feb1, CreatedAt: created},
		}, nil)

		w := api.do(t, http.MethodGet, "/api/v1/debts/10/transactions/export", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "debt-10-transactions.csv")
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "id,date,kind,amount,description,created_at", lines[0])
		assert.Equal(t, "1,2024-02-01,payment,2000000,first,2024-02-01T09:30:00Z", lines[1])
	})

	t.Run("export of unknown debt", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.debts.On("ListTransactions", mock.Anything, ownerID, int64(99)).Return(nil, debt.ErrDebtNotFound)

		w := api.do(t, http.MethodGet, "/api/v1/debts/99/transactions/export", "")
		assertErrorCode(t, w, http.StatusNotFound, apperrors.ErrCodeNotFound)
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})
}

func TestLedgerRoutes(t *testing.T) {
	t.Run("list with filters", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		linked := int64(3)
		api.txs.On("List", mock.Anything, ownerID, mock.MatchedBy(func(f transaction.Filters) bool {
			return f.Kind != nil && *f.Kind == transaction.KindExpense &&
				f.From != nil && f.From.Equal(feb1) && f.To == nil && f.Limit == 20 && f.Offset == 40
		})).Return([]*transaction.Transaction{{
			ID: 5, OwnerID: ownerID, Amount: decimal.NewFromInt(2000000), Kind: transaction.KindExpense,
			CategoryID: 2, CategoryName: "Debt Payment", Description: "Trả nợ: first", Date: feb1,
			DebtTransactionID: &linked, CreatedAt: created,
		}}, nil)

		w := api.do(t, http.MethodGet, "/api/v1/transactions?type=expense&from=2024-02-01&limit=20&offset=40", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp handler.TransactionsListResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Transactions, 1)
		assert.Equal(t, "2,000,000", resp.Transactions[0].AmountDisplay)
		assert.Equal(t, &linked, resp.Transactions[0].DebtTransactionID)
	})

	t.Run("non numeric limit", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		w := api.do(t, http.MethodGet, "/api/v1/transactions?limit=all", "")
		assertErrorCode(t, w, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("get missing", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.txs.On("Get", mock.Anything, ownerID, int64(404)).Return(nil, transaction.ErrTransactionNotFound)

		w := api.do(t, http.MethodGet, "/api/v1/transactions/404", "")
		assertErrorCode(t, w, http.StatusNotFound, apperrors.ErrCodeNotFound)
	})
}

func TestCategoryRoutes(t *testing.T) {
	t.Run("filtered by type", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		expense := category.TypeExpense
		api.categories.On("List", mock.Anything, ownerID, &expense).Return([]*category.Category{
			{ID: 1, Name: "Other", Type: category.TypeExpense},
		}, nil)

		w := api.do(t, http.MethodGet, "/api/v1/categories?type=expense", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp handler.CategoriesListResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Categories, 1)
		assert.True(t, resp.Categories[0].Global)
	})

	t.Run("unknown type", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		w := api.do(t, http.MethodGet, "/api/v1/categories?type=transfer", "")
		assertErrorCode(t, w, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})
}

func TestAssistantRoutes(t *testing.T) {
	t.Run("answer", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.assistant.On("Ask", mock.Anything, ownerID, "how much do I owe?").
			Return(&assistant.Answer{Provider: "openai", Answer: "8,500,000"}, nil)

		w := api.do(t, http.MethodPost, "/api/v1/assistant/ask", `{"question":"how much do I owe?"}`)
		require.Equal(t, http.StatusOK, w.Code)
		var resp assistant.Answer
		decodeBody(t, w, &resp)
		assert.Equal(t, "openai", resp.Provider)
	})

	t.Run("not configured", func(t *testing.T) {
		api := newTestAPI(t, middleware.FixedOwner(ownerID))

		api.assistant.On("Ask", mock.Anything, ownerID, mock.Anything).Return(nil, assistant.ErrNotConfigured)

		w := api.do(t, http.MethodPost, "/api/v1/assistant/ask", `{"question":"hi"}`)
		assertErrorCode(t, w, http.StatusServiceUnavailable, apperrors.ErrCodeUnavailable)
	})
}

func TestIdentity(t *testing.T) {
	t.Run("missing identity middleware", func(t *testing.T) {
		api := newTestAPI(t, nil)

		w := api.do(t, http.MethodGet, "/api/v1/debts/10/remaining", "")
		assertErrorCode(t, w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized)
	})

	t.Run("bearer token selects the owner", func(t *testing.T) {
		verifier := middleware.NewTokenVerifier("test-secret-key-minimum-32-characters-long")
		api := newTestAPI(t, middleware.BearerOwner(verifier))

		api.debts.On("GetRemainingAmount", mock.Anything, int64(42), int64(10)).Return(decimal.NewFromInt(1), nil)

		token, err := verifier.GenerateToken(42, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/debts/10/remaining", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("health needs no identity", func(t *testing.T) {
		api := newTestAPI(t, nil)

		w := api.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
