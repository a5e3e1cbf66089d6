package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// CartRepo stores carts as a revisioned header row plus item rows. Every
// successful write returns the new revision.
type CartRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewCartRepo(pool *pgxpool.Pool) *CartRepo {
	return &CartRepo{pool: pool, now: time.Now}
}

func (r *CartRepo) AddItem(ctx context.Context, userID string, item domain.NewCartItem) (int64, error) {
	return r.write(ctx, userID, func(tx pgx.Tx, now time.Time) error {
		_, err := tx.Exec(ctx, insertCartItem,
			uuid.NewString(), userID, item.ProductID, item.Quantity, item.BasePrice.String(), now)
		return err
	})
}

func (r *CartRepo) UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) (int64, error) {
	return r.write(ctx, userID, func(tx pgx.Tx, _ time.Time) error {
		tag, err := tx.Exec(ctx, updateCartItemQuantity, userID, itemID, quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrItemNotFound
		}
		return nil
	})
}

func (r *CartRepo) RemoveItem(ctx context.Context, userID, itemID string) (int64, error) {
	return r.write(ctx, userID, func(tx pgx.Tx, _ time.Time) error {
		tag, err := tx.Exec(ctx, deleteCartItem, userID, itemID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrItemNotFound
		}
		return nil
	})
}

func (r *CartRepo) Clear(ctx context.Context, userID string) (int64, error) {
	return r.write(ctx, userID, func(tx pgx.Tx, _ time.Time) error {
		_, err := tx.Exec(ctx, deleteCartItems, userID)
		return err
	})
}

// Snapshot reads the whole cart. A user without a cart gets an empty one at
// revision 0.
func (r *CartRepo) Snapshot(ctx context.Context, userID string) (domain.Cart, error) {
	c := domain.Cart{UserID: userID, Items: []domain.CartItem{}}

	err := r.pool.QueryRow(ctx, selectCart, userID).Scan(&c.Revision, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return c, nil
	}
	if err != nil {
		return domain.Cart{}, err
	}

	rows, err := r.pool.Query(ctx, selectCartItems, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it    domain.CartItem
			price string
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Quantity, &price, &it.AddedAt); err != nil {
			return domain.Cart{}, err
		}
		if it.BasePrice, err = decimal.NewFromString(price); err != nil {
			return domain.Cart{}, fmt.Errorf("cart item %s price %q: %w", it.ID, price, err)
		}
		c.Items = append(c.Items, it)
	}
	return c, rows.Err()
}

func (r *CartRepo) write(ctx context.Context, userID string, fn func(pgx.Tx, time.Time) error) (int64, error) {
	if userID == "" {
		return 0, domain.ErrNoUser
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	now := r.now().UTC()
	var rev int64
	if err := tx.QueryRow(ctx, bumpCartRevision, userID, now).Scan(&rev); err != nil {
		return 0, fmt.Errorf("bump cart revision: %w", err)
	}
	if err := fn(tx, now); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return rev, nil
}
