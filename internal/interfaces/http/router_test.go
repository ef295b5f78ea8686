package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remflow/stockhistory-api/internal/application/catalog"
	"github.com/remflow/stockhistory-api/internal/application/dto"
	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/application/stock"
	"github.com/remflow/stockhistory-api/internal/domain"
	"github.com/remflow/stockhistory-api/internal/domain/entity"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Stubs and setup
// ──────────────────────────────────────────────────────────────────────────────

// fakeSource implements both application ports against fixed data.
type fakeSource struct {
	postings  []entity.Posting
	flow      []entity.FlowItem
	goods     []entity.Good
	branches  []entity.Branch
	houses    []entity.Warehouse
	postErr   error
	branchErr error
}

func (f *fakeSource) FetchPostings(context.Context, int64) ([]entity.Posting, error) {
	return f.postings, f.postErr
}
func (f *fakeSource) FetchMoves(context.Context, int64) ([]entity.Move, error)       { return nil, nil }
func (f *fakeSource) FetchOutcomes(context.Context, int64) ([]entity.Outcome, error) { return nil, nil }
func (f *fakeSource) FetchSales(context.Context, int64) ([]entity.Sale, error)       { return nil, nil }
func (f *fakeSource) FetchFlow(context.Context, int64) ([]entity.FlowItem, error) {
	return f.flow, nil
}
func (f *fakeSource) FetchWarehouseGoods(context.Context, int64) ([]entity.Good, error) {
	return f.goods, nil
}
func (f *fakeSource) FetchBranches(context.Context) ([]entity.Branch, error) {
	return f.branches, f.branchErr
}
func (f *fakeSource) FetchWarehouses(context.Context, int64) ([]entity.Warehouse, error) {
	return f.houses, nil
}

type noDirectory struct{}

func (noDirectory) EmployeeName(context.Context, int64) (string, bool) { return "", false }

func newTestApp(src *fakeSource) *fiber.App {
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	app := fiber.New()
	Router(app, RouterDeps{
		HistoryUC: history.NewUseCase(src, noDirectory{}, log),
		StockUC:   stock.NewRealtimeUseCase(src, log),
		CatalogUC: catalog.NewUseCase(src),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), "body: %s", body)
	}
	return resp.StatusCode
}

// ──────────────────────────────────────────────────────────────────────────────
// Product history endpoint
// ──────────────────────────────────────────────────────────────────────────────

func TestProductHistoryEndpoint_ReturnsReconciledLedger(t *testing.T) {
	src := &fakeSource{postings: []entity.Posting{{
		CreatedAt: entity.FlexTime{Time: time.Unix(1700000000, 0).UTC()},
		Label:     "P-1",
		Amount:    decimal.NewFromInt(10),
	}}}
	app := newTestApp(src)

	var body dto.ProductHistoryResponse
	status := doJSON(t, app, "/api/product-history/42?current_balance=10", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(42), body.ProductID)
	assert.True(t, body.ReconciliationOK)
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "P-1", body.Entries[0].Label)
	assert.Equal(t, string(entity.CategoryPosting), body.Entries[0].Type)
}

func TestProductHistoryEndpoint_RejectsBadParams(t *testing.T) {
	app := newTestApp(&fakeSource{})

	cases := map[string]string{
		"/api/product-history/zero":                "INVALID_PRODUCT_ID",
		"/api/product-history/-1":                  "INVALID_PRODUCT_ID",
		"/api/product-history/42?warehouse_id=x":   "INVALID_WAREHOUSE_ID",
		"/api/product-history/42?current_balance=": "", // empty value is simply absent
	}
	for path, wantCode := range cases {
		if wantCode == "" {
			status := doJSON(t, app, path, nil)
			assert.Equal(t, http.StatusOK, status, path)
			continue
		}
		var body dto.ErrorResponse
		status := doJSON(t, app, path, &body)
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.Equal(t, wantCode, body.Code, path)
	}
}

func TestProductHistoryEndpoint_AuthFailureIsBadGateway(t *testing.T) {
	src := &fakeSource{postErr: fmt.Errorf("postings: %w", domain.ErrAuthRefreshFailed)}
	app := newTestApp(src)

	var body dto.ErrorResponse
	status := doJSON(t, app, "/api/product-history/42", &body)

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "SOURCE_AUTH", body.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Catalog endpoints
// ──────────────────────────────────────────────────────────────────────────────

func TestBranchesEndpoint(t *testing.T) {
	src := &fakeSource{branches: []entity.Branch{{ID: 1, Title: "Main branch"}}}
	app := newTestApp(src)

	var body struct {
		Data []entity.Branch `json:"data"`
	}
	status := doJSON(t, app, "/api/branches", &body)

	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Main branch", body.Data[0].Title)
}

func TestBranchesEndpoint_SourceFailureIsBadGateway(t *testing.T) {
	src := &fakeSource{branchErr: fmt.Errorf("HTTP 500")}
	app := newTestApp(src)

	var body dto.ErrorResponse
	status := doJSON(t, app, "/api/branches", &body)

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "SOURCE", body.Code)
}

func TestWarehousesEndpoint_RejectsBadBranchID(t *testing.T) {
	app := newTestApp(&fakeSource{})

	var body dto.ErrorResponse
	status := doJSON(t, app, "/api/warehouses/abc", &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_BRANCH_ID", body.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Realtime goods endpoint
// ──────────────────────────────────────────────────────────────────────────────

func TestRealtimeGoodsEndpoint(t *testing.T) {
	src := &fakeSource{
		goods: []entity.Good{{ID: 42, Title: "Widget", Residue: decimal.NewFromInt(9)}},
		flow: []entity.FlowItem{
			{CreatedAt: entity.FlexTime{Time: time.Unix(100, 0).UTC()}, RelationType: entity.RelationPosting, Amount: decimal.NewFromInt(10)},
			{CreatedAt: entity.FlexTime{Time: time.Unix(200, 0).UTC()}, RelationType: entity.RelationSale, Amount: decimal.NewFromInt(1)},
		},
	}
	app := newTestApp(src)

	var body dto.RealtimeGoodsResponse
	status := doJSON(t, app, "/api/realtime-warehouse-goods/9", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(9), body.WarehouseID)
	require.Len(t, body.Products, 1)
	assert.Equal(t, "Widget", body.Products[0].Title)
	assert.True(t, body.Products[0].CalculatedResidue.Equal(decimal.NewFromInt(9)), "10 in, 1 out")
	assert.Equal(t, 2, body.Products[0].TotalOperations)
}
