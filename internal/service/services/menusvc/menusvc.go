package menusvc

import (
	"context"
	"strings"

	"github.com/corray333/food-ordering/internal/dal/interfaces/imenurepo"
	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/menuitem"
	"go.opentelemetry.io/otel"
)

// MenuService serves read-only catalog queries.
type MenuService struct {
	menuRepo imenurepo.IMenuRepository
}

// option is a function that configures the MenuService.
type option func(*MenuService)

// MustNewMenuService creates a new MenuService.
func MustNewMenuService(opts ...option) *MenuService {
	s := &MenuService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.menuRepo == nil {
		panic("menu service needs a menu repository")
	}

	return s
}

// WithMenuRepository sets the catalog storage.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMenuRepository(repo imenurepo.IMenuRepository) option {
	return func(s *MenuService) {
		s.menuRepo = repo
	}
}

// ListAvailable returns orderable items sorted by category, then name.
func (s *MenuService) ListAvailable(ctx context.Context, filter menuitem.Filter) ([]menuitem.MenuItem, error) {
	ctx, span := otel.Tracer("menusvc").Start(ctx, "MenuService.ListAvailable")
	defer span.End()

	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)

	items, err := s.menuRepo.ListAvailable(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []menuitem.MenuItem{}
	}

	return items, nil
}

// GetAvailableByID hides unavailable items behind a NotFoundError.
func (s *MenuService) GetAvailableByID(ctx context.Context, id int64) (*menuitem.MenuItem, error) {
	ctx, span := otel.Tracer("menusvc").Start(ctx, "MenuService.GetAvailableByID")
	defer span.End()

	item, err := s.menuRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsAvailable {
		return nil, errs.NotFound("menu item", id)
	}

	return item, nil
}

func (s *MenuService) Categories(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("menusvc").Start(ctx, "MenuService.Categories")
	defer span.End()

	categories, err := s.menuRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}

	return categories, nil
}
