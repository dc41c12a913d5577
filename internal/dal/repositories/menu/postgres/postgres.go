package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/menuitem"
	"github.com/corray333/food-ordering/internal/service/models/money"
	"github.com/jackc/pgx/v5"
)

var menuItemColumns = []string{
	"id",
	"name",
	"description",
	"price_cents",
	"category",
	"image_url",
	"is_available",
	"created_at",
	"updated_at",
}

// MenuItemDal represents menu item data access layer model.
type MenuItemDal struct {
	ID          int64
	Name        string
	Description string
	PriceCents  int64
	Category    string
	ImageURL    string
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToModel converts MenuItemDal to service layer MenuItem model.
func (m *MenuItemDal) ToModel() menuitem.MenuItem {
	return menuitem.MenuItem{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       money.FromCents(m.PriceCents),
		Category:    m.Category,
		ImageURL:    m.ImageURL,
		IsAvailable: m.IsAvailable,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (m *MenuItemDal) scanTargets() []any {
	return []any{
		&m.ID,
		&m.Name,
		&m.Description,
		&m.PriceCents,
		&m.Category,
		&m.ImageURL,
		&m.IsAvailable,
		&m.CreatedAt,
		&m.UpdatedAt,
	}
}

// MenuRepository reads the catalog.
type MenuRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewMenuRepository creates a new menu repository on a pool or a transaction.
func NewMenuRepository(conn postgres.GenericConn) *MenuRepository {
	return &MenuRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListAvailable returns available items ordered by category and name.
func (r *MenuRepository) ListAvailable(
	ctx context.Context,
	filter menuitem.Filter,
) ([]menuitem.MenuItem, error) {
	qb := r.sb.Select(menuItemColumns...).
		From("menu_items").
		Where(sq.Eq{"is_available": true}).
		OrderBy("category ASC", "name ASC")

	if filter.Category != "" {
		qb = qb.Where(sq.Eq{"category": filter.Category})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		qb = qb.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// GetByID returns one item regardless of availability.
func (r *MenuRepository) GetByID(ctx context.Context, id int64) (*menuitem.MenuItem, error) {
	query, args, err := r.sb.Select(menuItemColumns...).
		From("menu_items").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal MenuItemDal
	if err := r.conn.QueryRow(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFound("menu item", id)
		}

		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}

	item := dal.ToModel()

	return &item, nil
}

// GetByIDs returns the existing items among ids keyed by id. Missing ids are simply absent.
func (r *MenuRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]menuitem.MenuItem, error) {
	result := make(map[int64]menuitem.MenuItem, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := r.sb.Select(menuItemColumns...).
		From("menu_items").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	items, err := r.queryItems(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.ID] = item
	}

	return result, nil
}

// Categories returns distinct categories of available items.
func (r *MenuRepository) Categories(ctx context.Context) ([]string, error) {
	query, args, err := r.sb.Select("DISTINCT category").
		From("menu_items").
		Where(sq.Eq{"is_available": true}).
		OrderBy("category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return categories, nil
}

func (r *MenuRepository) queryItems(ctx context.Context, query string, args ...any) ([]menuitem.MenuItem, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := make([]menuitem.MenuItem, 0)
	for rows.Next() {
		var dal MenuItemDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
