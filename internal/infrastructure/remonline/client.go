package remonline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/remflow/stockhistory-api/internal/application/catalog"
	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/domain"
	"github.com/remflow/stockhistory-api/internal/domain/entity"
	"github.com/remflow/stockhistory-api/pkg/config"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

// Compile-time checks that Client implements the application ports.
var (
	_ history.OperationSource = (*Client)(nil)
	_ catalog.Source          = (*Client)(nil)
)

// Source API paths. The get-* endpoints page with a positional cursor.
const (
	pathFlowItems  = "/app/warehouse/get-goods-flow-items"
	pathPostings   = "/app/warehouse/get-postings"
	pathMoves      = "/app/warehouse/get-moves"
	pathOutcomes   = "/app/warehouse/get-outcomes"
	pathSales      = "/app/warehouse/get-sales"
	pathEmployees  = "/app/employees/get-list"
	pathBranches   = "/api/v2/branches"
	pathWarehouses = "/api/v2/warehouses"
	pathGoods      = "/api/v2/inventory/warehouse_goods"
)

// Client is the authenticated HTTP client for the source inventory API.
// It fetches every feed to completion through the page walker and maps
// authorization rejections to the domain error the retry contract keys on.
type Client struct {
	baseURL  string
	pageSize int
	maxPages int

	sessions   *SessionStore
	httpClient *http.Client
	log        *logger.Logger
}

// page is the envelope the source wraps list responses in.
type page[T any] struct {
	Data []T `json:"data"`
}

// NewClient constructs the client.
func NewClient(cfg config.SourceConfig, sessions *SessionStore, log *logger.Logger) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// FetchPostings returns all goods receipts of a product.
func (c *Client) FetchPostings(ctx context.Context, productID int64) ([]entity.Posting, error) {
	return fetchFeed[entity.Posting](ctx, c, "postings", pathPostings, productID)
}

// FetchMoves returns all warehouse transfers of a product.
func (c *Client) FetchMoves(ctx context.Context, productID int64) ([]entity.Move, error) {
	return fetchFeed[entity.Move](ctx, c, "moves", pathMoves, productID)
}

// FetchOutcomes returns all write-offs of a product.
func (c *Client) FetchOutcomes(ctx context.Context, productID int64) ([]entity.Outcome, error) {
	return fetchFeed[entity.Outcome](ctx, c, "outcomes", pathOutcomes, productID)
}

// FetchSales returns all sales of a product.
func (c *Client) FetchSales(ctx context.Context, productID int64) ([]entity.Sale, error) {
	return fetchFeed[entity.Sale](ctx, c, "sales", pathSales, productID)
}

// FetchFlow returns the coded goods-flow feed of a product.
func (c *Client) FetchFlow(ctx context.Context, productID int64) ([]entity.FlowItem, error) {
	fetchLog := c.feedLogger("flow", productID)
	return fetchAllPages(ctx, fetchLog,
		func(ctx context.Context, pageNum int) ([]entity.FlowItem, error) {
			path := fmt.Sprintf("%s?page=%d&pageSize=%d&id=%d&startDate=0&endDate=%d",
				pathFlowItems, pageNum, c.pageSize, productID, time.Now().UnixMilli())
			var env page[entity.FlowItem]
			if err := c.get(ctx, path, &env); err != nil {
				return nil, err
			}
			return env.Data, nil
		},
		c.sessions.Refresh, c.pageSize, c.maxPages)
}

// FetchWarehouseGoods lists the goods positions of a warehouse.
func (c *Client) FetchWarehouseGoods(ctx context.Context, warehouseID int64) ([]entity.Good, error) {
	fetchLog := c.feedLogger("warehouse_goods", warehouseID)
	return fetchAllPages(ctx, fetchLog,
		func(ctx context.Context, pageNum int) ([]entity.Good, error) {
			path := fmt.Sprintf("%s?warehouse_id=%d&page=%d&pageSize=%d",
				pathGoods, warehouseID, pageNum, c.pageSize)
			var env page[entity.Good]
			if err := c.get(ctx, path, &env); err != nil {
				return nil, err
			}
			return env.Data, nil
		},
		c.sessions.Refresh, c.pageSize, c.maxPages)
}

// FetchBranches lists the account's branches.
func (c *Client) FetchBranches(ctx context.Context) ([]entity.Branch, error) {
	var env page[entity.Branch]
	if err := c.getWithRetry(ctx, pathBranches, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// FetchWarehouses lists the warehouses of a branch.
func (c *Client) FetchWarehouses(ctx context.Context, branchID int64) ([]entity.Warehouse, error) {
	var env page[entity.Warehouse]
	path := fmt.Sprintf("%s?branch_id=%d", pathWarehouses, branchID)
	if err := c.getWithRetry(ctx, path, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// fetchEmployees pages through the employee list for the directory cache.
func (c *Client) fetchEmployees(ctx context.Context) ([]employee, error) {
	fetchLog := c.feedLogger("employees", 0)
	return fetchAllPages(ctx, fetchLog,
		func(ctx context.Context, pageNum int) ([]employee, error) {
			path := fmt.Sprintf("%s?page=%d&pageSize=%d", pathEmployees, pageNum, c.pageSize)
			var env page[employee]
			if err := c.get(ctx, path, &env); err != nil {
				return nil, err
			}
			return env.Data, nil
		},
		c.sessions.Refresh, c.pageSize, c.maxPages)
}

// fetchFeed pulls one product feed to completion through the page walker.
func fetchFeed[T any](ctx context.Context, c *Client, feed, path string, productID int64) ([]T, error) {
	fetchLog := c.feedLogger(feed, productID)
	return fetchAllPages(ctx, fetchLog,
		func(ctx context.Context, pageNum int) ([]T, error) {
			query := fmt.Sprintf("%s?page=%d&pageSize=%d&product_id=%d", path, pageNum, c.pageSize, productID)
			var env page[T]
			if err := c.get(ctx, query, &env); err != nil {
				return nil, err
			}
			return env.Data, nil
		},
		c.sessions.Refresh, c.pageSize, c.maxPages)
}

// feedLogger tags all pagination logs of one fetch with a trace id.
func (c *Client) feedLogger(feed string, id int64) zerolog.Logger {
	return c.log.With().
		Str("fetch_id", uuid.NewString()).
		Str("feed", feed).
		Int64("id", id).
		Logger()
}

// get performs one authenticated GET and decodes the JSON body into out.
// A 401/403 from the source maps to ErrSourceUnauthorized so the page walker
// can apply the refresh-once retry contract.
func (c *Client) get(ctx context.Context, pathWithQuery string, out any) error {
	cookies, err := c.sessions.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("source: obtain session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathWithQuery, nil)
	if err != nil {
		return fmt.Errorf("source: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", "stockhistory-api")
	req.Header.Set("Cookie", cookies)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("source: request canceled: %w", ctx.Err())
		}
		return fmt.Errorf("source: HTTP call failed: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return fmt.Errorf("source: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("source: HTTP %d: %w", resp.StatusCode, domain.ErrSourceUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("source: HTTP %d: %s", resp.StatusCode, truncate(rawBody, 200))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("source: decode response: %w", err)
	}
	return nil
}

// getWithRetry applies the refresh-once contract to a single unpaged request.
func (c *Client) getWithRetry(ctx context.Context, pathWithQuery string, out any) error {
	err := c.get(ctx, pathWithQuery, out)
	if err == nil {
		return nil
	}
	if !isUnauthorized(err) {
		return err
	}
	if rerr := c.sessions.Refresh(ctx); rerr != nil {
		return fmt.Errorf("refresh after rejection: %v: %w", rerr, domain.ErrAuthRefreshFailed)
	}
	err = c.get(ctx, pathWithQuery, out)
	if isUnauthorized(err) {
		return fmt.Errorf("session rejected again after refresh: %w", domain.ErrAuthRefreshFailed)
	}
	return err
}

func isUnauthorized(err error) bool {
	return errors.Is(err, domain.ErrSourceUnauthorized)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
