package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/govalues/decimal"
	"github.com/membora/pointsledger/internal/adapter/config"
	"github.com/membora/pointsledger/internal/core/domain"
	"go.uber.org/zap"
)

// Client resolves product point prices from the external catalog service.
type Client struct {
	logger *zap.Logger
	host   string
	client *http.Client
}

func NewClient(cfg *config.Catalog, log *zap.Logger) (*Client, error) {
	return &Client{
		host:   cfg.HostString,
		logger: log,
		client: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

type productResponse struct {
	ID           uint64  `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	PointsPrice  int64   `json:"points_price"`
	Availability bool    `json:"availability"`
}

func (c *Client) GetProduct(ctx context.Context, productID uint64) (*domain.Product, error) {
	requestStr := "http://" + c.host + "/api/product/" + strconv.FormatUint(productID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestStr, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error on %s : %w", requestStr, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error %s : %w", requestStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrDataNotFound
		}
		c.logger.Error("unexpected status from catalog",
			zap.Uint64("product", productID), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("bad response %v for request %s", resp.StatusCode, requestStr)
	}

	var result productResponse
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("error on response decode: %w", err)
	}

	price, err := decimal.NewFromFloat64(result.Price)
	if err != nil {
		return nil, fmt.Errorf("error on response decode: %w", err)
	}

	return &domain.Product{
		ID:          result.ID,
		Title:       result.Title,
		Price:       price,
		PointsPrice: result.PointsPrice,
		Available:   result.Availability,
	}, nil
}
