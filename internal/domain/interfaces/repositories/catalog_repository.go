// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/javabuild/internal/domain/entities"
)

// CatalogRepository defines the interface for accessing the toolchain catalog
type CatalogRepository interface {
	// GetCatalog returns the JDK and build tool version tables
	GetCatalog(ctx context.Context) (*entities.Catalog, error)
}
