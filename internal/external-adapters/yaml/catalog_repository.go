package yaml

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/javabuild/internal/domain/entities"
)

// CatalogRepository implements repositories.CatalogRepository using a YAML file.
// An empty path selects the embedded default catalog.
type CatalogRepository struct {
	catalogPath string
	parser      *CatalogParser
}

// NewCatalogRepository creates a new YAML-based catalog repository
func NewCatalogRepository(catalogPath string) *CatalogRepository {
	return &CatalogRepository{
		catalogPath: catalogPath,
		parser:      NewCatalogParser(),
	}
}

// GetCatalog loads and validates the catalog
func (r *CatalogRepository) GetCatalog(_ context.Context) (*entities.Catalog, error) {
	if r.catalogPath == "" {
		return r.parser.ParseDefault()
	}

	if _, err := os.Stat(r.catalogPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("catalog not found: %s", r.catalogPath)
	}

	return r.parser.ParseFile(r.catalogPath)
}
