package records

import (
	"context"
	"strings"

	"github.com/teemow/leadcal/internal/apperror"
)

// Catalog sheet columns. Extra columns after these are returned as-is.
const (
	CatalogName        Field = "Nombre"
	CatalogDescription Field = "Descripcion"
	CatalogPrice       Field = "Precio"
)

// CatalogSchema returns the schema of the services catalog.
func CatalogSchema(sheet string) Schema {
	return Schema{
		Sheet:  sheet,
		Key:    CatalogName,
		Fields: []Field{CatalogName, CatalogDescription, CatalogPrice},
		Open:   true,
	}
}

// Catalog reads the services catalog.
type Catalog struct {
	store Store
}

// NewCatalog creates a catalog reader.
func NewCatalog(store Store) *Catalog {
	return &Catalog{store: store}
}

// List returns every service.
func (c *Catalog) List(ctx context.Context) ([]Record, error) {
	return c.store.FindAll(ctx, func(Record) bool { return true })
}

// Get returns the service whose name matches case-insensitively.
func (c *Catalog) Get(ctx context.Context, name string) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Input("get_service", "service name is required")
	}
	rec, found, err := c.store.Find(ctx, func(r Record) bool {
		return strings.EqualFold(strings.TrimSpace(r[CatalogName]), name)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.NotFound("get_service", "service %q not found", name)
	}
	return rec, nil
}
