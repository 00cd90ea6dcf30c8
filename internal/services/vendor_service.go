package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"handmade/internal/domain"
	"handmade/internal/repos"
	"handmade/internal/validate"
)

type ProductInput struct {
	CategoryID  string  `json:"categoryId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImgURL      string  `json:"imgURL"`
}

// VendorService manages a vendor's own listings. New and edited listings go
// back through admin review.
type VendorService struct {
	Cats   *repos.CategoryRepo
	Prods  *repos.ProductRepo
	Events EventDispatcher
}

func NewVendorService(cats *repos.CategoryRepo, prods *repos.ProductRepo, events EventDispatcher) *VendorService {
	return &VendorService{Cats: cats, Prods: prods, Events: events}
}

func (s *VendorService) ListOwn(ctx context.Context, vendor *domain.User) ([]domain.Product, error) {
	if err := requireVendor(vendor); err != nil {
		return nil, err
	}
	return s.Prods.List(repos.ProductFilter{VendorID: vendor.ID}, 0, 0)
}

func (s *VendorService) Create(ctx context.Context, vendor *domain.User, in ProductInput) (domain.Product, error) {
	if err := requireVendor(vendor); err != nil {
		return domain.Product{}, err
	}
	p, err := s.checked(in)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = "p-" + uuid.NewString()
	p.VendorID = vendor.ID
	p.Status = domain.StatusPending
	if err := s.Prods.Create(p); err != nil {
		return domain.Product{}, errors.Wrap(err, "create product")
	}
	announce(s.Events, domain.ProductSubmitted{ProductID: p.ID, VendorID: vendor.ID, Title: p.Title, At: time.Now().UTC()})
	return s.Prods.Get(p.ID)
}

func (s *VendorService) Update(ctx context.Context, vendor *domain.User, id string, in ProductInput) (domain.Product, error) {
	if err := requireVendor(vendor); err != nil {
		return domain.Product{}, err
	}
	cur, err := s.own(vendor, id)
	if err != nil {
		return domain.Product{}, err
	}
	p, err := s.checked(in)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = cur.ID
	p.VendorID = cur.VendorID
	p.Status = domain.StatusPending
	if err := s.Prods.Update(p); err != nil {
		return domain.Product{}, errors.Wrap(err, "update product")
	}
	announce(s.Events, domain.ProductSubmitted{ProductID: p.ID, VendorID: vendor.ID, Title: p.Title, At: time.Now().UTC()})
	return s.Prods.Get(p.ID)
}

// Delete removes the listing; cart lines, favorites and feedback go with it.
func (s *VendorService) Delete(ctx context.Context, vendor *domain.User, id string) error {
	if err := requireVendor(vendor); err != nil {
		return err
	}
	if _, err := s.own(vendor, id); err != nil {
		return err
	}
	if _, err := s.Prods.Delete(id, vendor.ID); err != nil {
		return errors.Wrap(err, "delete product")
	}
	announce(s.Events, domain.ProductDeleted{ProductID: id, VendorID: vendor.ID, At: time.Now().UTC()})
	return nil
}

func (s *VendorService) own(vendor *domain.User, id string) (domain.Product, error) {
	p, err := s.Prods.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	if p.VendorID != vendor.ID {
		return domain.Product{}, ErrForbidden
	}
	return p, nil
}

func (s *VendorService) checked(in ProductInput) (domain.Product, error) {
	title, ok := validate.Title(in.Title)
	if !ok {
		return domain.Product{}, invalid("title must be 1..80 characters")
	}
	desc, ok := validate.Description(in.Description)
	if !ok {
		return domain.Product{}, invalid("description is too long")
	}
	if !validate.Price(in.Price) {
		return domain.Product{}, invalid("price must not be negative")
	}
	if !validate.Stock(in.Stock) {
		return domain.Product{}, invalid("stock must not be negative")
	}
	catID, ok := validate.ID(in.CategoryID)
	if !ok {
		return domain.Product{}, invalid("unknown category")
	}
	if _, err := s.Cats.Get(catID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, invalid("unknown category")
		}
		return domain.Product{}, err
	}
	return domain.Product{
		CategoryID:  catID,
		Title:       title,
		Description: desc,
		Price:       in.Price,
		Stock:       in.Stock,
		ImgURL:      in.ImgURL,
	}, nil
}

func requireVendor(u *domain.User) error {
	if u == nil || u.Role != domain.RoleVendor {
		return ErrForbidden
	}
	return nil
}
