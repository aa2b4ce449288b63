package port

import (
	"context"

	"github.com/membora/pointsledger/internal/core/domain"
)

// CatalogClient resolves the point price of a product. The catalog itself is
// an external collaborator; this core only reads from it.
//
//go:generate mockgen -source=catalog.go -destination=mock/catalog.go -package=mock
type CatalogClient interface {
	GetProduct(ctx context.Context, productID uint64) (*domain.Product, error)
}
