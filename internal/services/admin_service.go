package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"handmade/internal/domain"
	"handmade/internal/repos"
)

const AdminPageSize = 10

type AdminService struct {
	Users     *repos.UserRepo
	Prods     *repos.ProductRepo
	OrderRepo *repos.OrderRepo
	Feedback  *repos.FeedbackRepo
	Catalog   *CatalogService
	Events    EventDispatcher
}

func NewAdminService(users *repos.UserRepo, prods *repos.ProductRepo, orders *repos.OrderRepo, fb *repos.FeedbackRepo, catalog *CatalogService, events EventDispatcher) *AdminService {
	return &AdminService{Users: users, Prods: prods, OrderRepo: orders, Feedback: fb, Catalog: catalog, Events: events}
}

type Overview struct {
	Customers int            `json:"customers"`
	Vendors   int            `json:"vendors"`
	Products  map[string]int `json:"products"`
	Orders    map[string]int `json:"orders"`
	Feedback  int            `json:"feedback"`
}

func (s *AdminService) Overview(ctx context.Context) (Overview, error) {
	var (
		ov    Overview
		roles map[string]int
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) { roles, err = s.Users.RoleCounts(); return })
	g.Go(func() (err error) { ov.Products, err = s.Prods.StatusCounts(); return })
	g.Go(func() (err error) { ov.Orders, err = s.OrderRepo.StatusCounts(); return })
	g.Go(func() (err error) { ov.Feedback, err = s.Feedback.Count(); return })
	if err := g.Wait(); err != nil {
		return Overview{}, errors.Wrap(err, "overview")
	}
	ov.Customers = roles[domain.RoleCustomer]
	ov.Vendors = roles[domain.RoleVendor]
	return ov, nil
}

// CustomerRow is a customer as listed on the dashboard. No is the 1-based
// position across all pages.
type CustomerRow struct {
	No int `json:"no"`
	domain.User
}

type CustomerPage struct {
	Items []CustomerRow `json:"items"`
	Page  domain.Page   `json:"page"`
}

// Customers pages through role=customer accounts matching search on name or
// email. A page past the end is empty.
func (s *AdminService) Customers(ctx context.Context, search string, page int) (CustomerPage, error) {
	total, err := s.Users.CountCustomers(search)
	if err != nil {
		return CustomerPage{}, err
	}
	pg := domain.NewPage(page, AdminPageSize, total)
	users, err := s.Users.Customers(search, pg.Size, pg.Offset())
	if err != nil {
		return CustomerPage{}, err
	}
	rows := make([]CustomerRow, len(users))
	for i, u := range users {
		rows[i] = CustomerRow{No: pg.Offset() + i + 1, User: u}
	}
	return CustomerPage{Items: rows, Page: pg}, nil
}

type UserDetail struct {
	User   *domain.User   `json:"user"`
	Orders []domain.Order `json:"orders"`
}

func (s *AdminService) User(ctx context.Context, id string) (UserDetail, error) {
	u, err := s.Users.ByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return UserDetail{}, ErrNotFound
	}
	if err != nil {
		return UserDetail{}, err
	}
	orders, err := s.OrderRepo.ListByUser(id)
	if err != nil {
		return UserDetail{}, err
	}
	return UserDetail{User: u, Orders: orders}, nil
}

// DeleteUser removes an account, keeping its orders (cancelled if still open).
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.Users.ByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if u.IsAdmin() {
		return ErrProtectedUser
	}
	if err := s.Users.DeleteUserCascade(id); err != nil {
		return errors.Wrap(err, "delete user")
	}
	announce(s.Events, domain.UserDeleted{UserID: id, At: time.Now().UTC()})
	return nil
}

type OrderPage struct {
	Items []domain.Order `json:"items"`
	Page  domain.Page    `json:"page"`
}

func (s *AdminService) Orders(ctx context.Context, status string, page int) (OrderPage, error) {
	if status != "" && !validOrderStatus(status) {
		return OrderPage{}, invalid("unknown order status")
	}
	total, err := s.OrderRepo.Count(status)
	if err != nil {
		return OrderPage{}, err
	}
	pg := domain.NewPage(page, AdminPageSize, total)
	items, err := s.OrderRepo.List(status, pg.Size, pg.Offset())
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Items: items, Page: pg}, nil
}

func (s *AdminService) UpdateOrderStatus(ctx context.Context, id, status string) error {
	if !validOrderStatus(status) {
		return invalid("unknown order status")
	}
	ok, err := s.OrderRepo.UpdateStatus(id, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	announce(s.Events, domain.OrderStatusChanged{OrderID: id, Status: status, At: time.Now().UTC()})
	return nil
}

type AdminProductPage struct {
	Items []domain.Product `json:"items"`
	Page  domain.Page      `json:"page"`
}

func (s *AdminService) Products(ctx context.Context, status string, page int) (AdminProductPage, error) {
	switch status {
	case "", domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		return AdminProductPage{}, invalid("unknown product status")
	}
	f := repos.ProductFilter{Status: status}
	total, err := s.Prods.Count(f)
	if err != nil {
		return AdminProductPage{}, err
	}
	pg := domain.NewPage(page, AdminPageSize, total)
	items, err := s.Prods.List(f, pg.Size, pg.Offset())
	if err != nil {
		return AdminProductPage{}, err
	}
	return AdminProductPage{Items: items, Page: pg}, nil
}

func (s *AdminService) ReviewProduct(ctx context.Context, id string, approve bool) error {
	return s.Catalog.ReviewProduct(ctx, id, approve)
}

func validOrderStatus(s string) bool {
	switch s {
	case domain.OrderPlaced, domain.OrderShipped, domain.OrderDelivered, domain.OrderCanceled:
		return true
	}
	return false
}
