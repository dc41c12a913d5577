package imenurepo

import (
	"context"

	"github.com/corray333/food-ordering/internal/service/models/menuitem"
)

type IMenuRepository interface {
	// ListAvailable returns available items matching filter, ordered by category then name.
	ListAvailable(ctx context.Context, filter menuitem.Filter) ([]menuitem.MenuItem, error)
	// GetByID returns the item regardless of availability, or a NotFoundError.
	GetByID(ctx context.Context, id int64) (*menuitem.MenuItem, error)
	// GetByIDs returns the items that exist among ids, keyed by id.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]menuitem.MenuItem, error)
	// Categories returns the distinct categories of available items in ascending order.
	Categories(ctx context.Context) ([]string, error)
}
