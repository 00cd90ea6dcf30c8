package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"handmade/internal/domain"
	"handmade/internal/repos"
	"handmade/internal/validate"
)

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderService struct {
	DB     *sqlx.DB
	Carts  *repos.CartRepo
	Orders *repos.OrderRepo
	Events EventDispatcher
}

func NewOrderService(db *sqlx.DB, carts *repos.CartRepo, orders *repos.OrderRepo, events EventDispatcher) *OrderService {
	return &OrderService{DB: db, Carts: carts, Orders: orders, Events: events}
}

// Checkout turns the cart into an order at the prices captured when each line
// was added. Stock was already reserved by the cart, so it is not touched here.
func (s *OrderService) Checkout(ctx context.Context, user *domain.User, contact Contact) (domain.Order, error) {
	if user == nil {
		return domain.Order{}, ErrForbidden
	}
	if contact.Name == "" {
		contact.Name = user.DisplayName
	}
	if contact.Email == "" {
		contact.Email = user.Email
	}
	name, ok := validate.Name(contact.Name)
	if !ok {
		return domain.Order{}, invalid("contact name must be 1..40 characters")
	}
	email, ok := validate.Email(contact.Email)
	if !ok {
		return domain.Order{}, invalid("contact email is not valid")
	}

	o := domain.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		CustomerName:  name,
		CustomerEmail: email,
		Status:        domain.OrderPlaced,
	}
	err := repos.WithTx(s.DB, func(tx *sqlx.Tx) error {
		items, err := s.Carts.ItemsTx(tx, user.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}
		total, _ := cartTotal(items)
		o.Total, _ = total.Float64()
		for _, it := range items {
			o.Items = append(o.Items, domain.OrderItem{
				OrderID: o.ID, ProductID: it.ProductID, Title: it.Title, Quantity: it.Quantity, Price: it.Price,
			})
		}
		if err := s.Orders.Create(tx, o); err != nil {
			return err
		}
		return s.Carts.Clear(tx, user.ID)
	})
	if err != nil {
		return domain.Order{}, err
	}
	announce(s.Events, domain.OrderPlacedEvent{OrderID: o.ID, UserID: user.ID, Total: o.Total, At: time.Now().UTC()})
	return s.Orders.Get(o.ID)
}

func (s *OrderService) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(userID)
}
