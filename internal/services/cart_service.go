package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"handmade/internal/domain"
	"handmade/internal/repos"
)

type CartService struct {
	DB     *sqlx.DB
	Carts  *repos.CartRepo
	Prods  *repos.ProductRepo
	Events EventDispatcher
}

func NewCartService(db *sqlx.DB, carts *repos.CartRepo, prods *repos.ProductRepo, events EventDispatcher) *CartService {
	return &CartService{DB: db, Carts: carts, Prods: prods, Events: events}
}

// Add puts one unit of productID in the user's cart and reserves it from stock.
// The cart write and the conditional stock decrement share one transaction.
func (s *CartService) Add(ctx context.Context, userID, productID string) (domain.CartItem, error) {
	if userID == "" {
		return domain.CartItem{}, ErrForbidden
	}
	var left int
	err := repos.WithTx(s.DB, func(tx *sqlx.Tx) error {
		p, err := s.Prods.GetTx(tx, productID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && p.Status != domain.StatusApproved) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		if p.Stock <= 0 {
			return ErrOutOfStock
		}
		_, err = s.Carts.Line(tx, userID, productID)
		switch {
		case err == nil:
			err = s.Carts.Increment(tx, userID, productID, 1)
		case errors.Is(err, sql.ErrNoRows):
			err = s.Carts.Insert(tx, userID, p, 1)
		}
		if err != nil {
			return err
		}
		left, err = s.Prods.DecrementStock(tx, productID, 1)
		if errors.Is(err, repos.ErrInsufficientStock) {
			return ErrOutOfStock
		}
		return err
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	now := time.Now().UTC()
	announce(s.Events,
		domain.CartItemAdded{UserID: userID, ProductID: productID, Quantity: 1, At: now},
		domain.ProductStockChanged{ProductID: productID, ChangeAmount: -1, NewQuantity: left, At: now},
	)
	items, err := s.Carts.Items(userID)
	if err != nil {
		return domain.CartItem{}, err
	}
	for _, it := range items {
		if it.ProductID == productID {
			return it, nil
		}
	}
	return domain.CartItem{}, ErrNotFound
}

type CartView struct {
	Items []domain.CartItem `json:"items"`
	Total float64           `json:"total"`
	Count int               `json:"count"`
}

func (s *CartService) View(ctx context.Context, userID string) (CartView, error) {
	items, err := s.Carts.Items(userID)
	if err != nil {
		return CartView{}, err
	}
	total, count := cartTotal(items)
	f, _ := total.Float64()
	return CartView{Items: items, Total: f, Count: count}, nil
}

// Remove drops the line and returns its quantity to stock.
func (s *CartService) Remove(ctx context.Context, userID, productID string) error {
	var restored, left int
	err := repos.WithTx(s.DB, func(tx *sqlx.Tx) error {
		line, err := s.Carts.Line(tx, userID, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := s.Carts.DeleteLine(tx, userID, productID); err != nil {
			return err
		}
		restored = line.Quantity
		left, err = s.Prods.RestoreStock(tx, productID, line.Quantity)
		return err
	})
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	announce(s.Events,
		domain.CartItemRemoved{UserID: userID, ProductID: productID, Restored: restored, At: now},
		domain.ProductStockChanged{ProductID: productID, ChangeAmount: restored, NewQuantity: left, At: now},
	)
	return nil
}

func cartTotal(items []domain.CartItem) (decimal.Decimal, int) {
	total := decimal.Zero
	count := 0
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}
	return total.Round(2), count
}
