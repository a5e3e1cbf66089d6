package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo { return &ProductRepo{pool: pool} }

func (r *ProductRepo) Find(ctx context.Context, q domain.StoreQuery) ([]domain.Product, error) {
	sql, args, err := buildFindSQL(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var (
			p     domain.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.Brand, &p.Tags,
			&price, &p.Stock, &p.Status, &p.Visibility, &p.Featured, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert writes products in one transaction.
func (r *ProductRepo) Upsert(ctx context.Context, products []domain.Product) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range products {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(upsertProduct,
			p.ID, p.SKU, p.Name, p.Description, p.Category, p.Brand, tags, p.Price.String(),
			p.Stock, p.Status, p.Visibility, p.Featured, p.CreatedAt, p.UpdatedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type sortColumn struct {
	expr string
	cast string
}

var sortColumns = map[domain.SortField]sortColumn{
	domain.SortByCreatedAt: {expr: "created_at", cast: "::timestamptz"},
	domain.SortByUpdatedAt: {expr: "updated_at", cast: "::timestamptz"},
	domain.SortByName:      {expr: `name COLLATE "C"`, cast: `::text COLLATE "C"`},
	domain.SortByPrice:     {expr: "price", cast: "::numeric"},
}

// buildFindSQL renders q as a parameterised keyset query. Ties on the sort
// column are broken by id, compared bytewise so the order matches Go's.
func buildFindSQL(q domain.StoreQuery) (string, []any, error) {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = domain.SortByCreatedAt
	}
	col, ok := sortColumns[sortBy]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalidParams, sortBy)
	}
	dir, cmp := "ASC", ">"
	if q.SortDirection == domain.SortDesc {
		dir, cmp = "DESC", "<"
	}

	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.Status != "" {
		add("status = $%d", q.Status)
	}
	if q.Visibility != "" {
		add("visibility = $%d", q.Visibility)
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.Brand != "" {
		add("brand = $%d", q.Brand)
	}
	if q.Featured != nil {
		add("featured = $%d", *q.Featured)
	}
	if q.InStock {
		where = append(where, "stock > 0")
	}
	if q.After != nil {
		args = append(args, q.After.Value, q.After.ID)
		where = append(where, fmt.Sprintf(`(%s, id COLLATE "C") %s ($%d%s, $%d::text COLLATE "C")`,
			col.expr, cmp, len(args)-1, col.cast, len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectProductColumns)
	b.WriteString(" FROM products")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, ` ORDER BY %s %s, id COLLATE "C" %s`, col.expr, dir, dir)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args, nil
}
