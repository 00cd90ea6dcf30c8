package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"handmade/internal/domain"
	"handmade/internal/repos"
	"handmade/internal/validate"
)

const BrowsePageSize = 12

type CatalogService struct {
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Favs    *repos.FavoriteRepo
	Ratings *RatingService
	Events  EventDispatcher
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, favs *repos.FavoriteRepo, ratings *RatingService, events EventDispatcher) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Favs: favs, Ratings: ratings, Events: events}
}

type ProductPage struct {
	Items []domain.ProductCard `json:"items"`
	Page  domain.Page          `json:"page"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List()
}

// CreateCategory derives the id from the name ("Glass Art" -> "glass-art").
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name, ok := validate.Name(name)
	if !ok {
		return domain.Category{}, invalid("category name must be 1..40 characters")
	}
	id := slug(name)
	if _, ok := validate.ID(id); !ok {
		return domain.Category{}, invalid("category name must contain letters or digits")
	}
	if err := s.Cats.Create(id, name); err != nil {
		return domain.Category{}, errors.WithMessage(ErrInvalidInput, "category already exists")
	}
	return s.Cats.Get(id)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	n, err := s.Cats.InUse(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	ok, err := s.Cats.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Browse lists approved products other than the viewer's own, newest first.
// category "" or "all" disables the filter.
func (s *CatalogService) Browse(ctx context.Context, viewerID, category string, page int) (ProductPage, error) {
	f := repos.ProductFilter{Status: domain.StatusApproved, ExcludeVendor: viewerID}
	if c := strings.TrimSpace(category); c != "" && !strings.EqualFold(c, "all") {
		f.Category = c
	}
	total, err := s.Prods.Count(f)
	if err != nil {
		return ProductPage{}, err
	}
	pg := domain.NewPage(page, BrowsePageSize, total)
	prods, err := s.Prods.List(f, pg.Size, pg.Offset())
	if err != nil {
		return ProductPage{}, err
	}
	cards, err := s.cards(ctx, viewerID, prods)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Items: cards, Page: pg}, nil
}

// Product returns one listing. Unapproved listings are only visible to their
// vendor and to admins.
func (s *CatalogService) Product(ctx context.Context, viewer *domain.User, id string) (domain.ProductCard, error) {
	p, err := s.Prods.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProductCard{}, ErrProductNotFound
	}
	if err != nil {
		return domain.ProductCard{}, err
	}
	if p.Status != domain.StatusApproved {
		if viewer == nil || (viewer.ID != p.VendorID && !viewer.IsAdmin()) {
			return domain.ProductCard{}, ErrProductNotFound
		}
	}
	viewerID := ""
	if viewer != nil {
		viewerID = viewer.ID
	}
	cards, err := s.cards(ctx, viewerID, []domain.Product{p})
	if err != nil {
		return domain.ProductCard{}, err
	}
	return cards[0], nil
}

const searchLimit = 50

func (s *CatalogService) Search(ctx context.Context, viewerID, q, category string) ([]domain.ProductCard, error) {
	f := repos.ProductFilter{Status: domain.StatusApproved, Query: strings.ToLower(q)}
	if c := strings.TrimSpace(category); c != "" && !strings.EqualFold(c, "all") {
		f.Category = c
	}
	prods, err := s.Prods.List(f, searchLimit, 0)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, viewerID, prods)
}

func (s *CatalogService) Availability(ctx context.Context, productID string) (domain.Availability, error) {
	p, err := s.Prods.Get(productID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && p.Status != domain.StatusApproved) {
		return domain.Availability{}, ErrProductNotFound
	}
	if err != nil {
		return domain.Availability{}, err
	}
	return domain.Availability{ProductID: p.ID, Status: domain.AvailabilityOf(p.Stock), Qty: p.Stock}, nil
}

// Snapshot is every approved listing with ratings, as pushed to live subscribers.
func (s *CatalogService) Snapshot(ctx context.Context) ([]domain.ProductCard, error) {
	prods, err := s.Prods.List(repos.ProductFilter{Status: domain.StatusApproved}, 0, 0)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, "", prods)
}

// ReviewProduct approves or rejects a listing.
func (s *CatalogService) ReviewProduct(ctx context.Context, id string, approve bool) error {
	status := domain.StatusRejected
	if approve {
		status = domain.StatusApproved
	}
	ok, err := s.Prods.SetStatus(id, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound
	}
	announce(s.Events, domain.ProductReviewed{ProductID: id, Status: status, At: time.Now().UTC()})
	return nil
}

func (s *CatalogService) cards(ctx context.Context, viewerID string, prods []domain.Product) ([]domain.ProductCard, error) {
	ids := make([]string, len(prods))
	for i, p := range prods {
		ids[i] = p.ID
	}
	avgs, err := s.Ratings.AverageRatings(ctx, ids)
	if err != nil {
		return nil, err
	}
	marks := map[string]bool{}
	if viewerID != "" && s.Favs != nil {
		if marks, err = s.Favs.Marked(viewerID, ids); err != nil {
			return nil, err
		}
	}
	out := make([]domain.ProductCard, len(prods))
	for i, p := range prods {
		out[i] = domain.ProductCard{
			Product:       p,
			AverageRating: avgs[p.ID],
			Availability:  domain.AvailabilityOf(p.Stock),
			Favorite:      marks[p.ID],
		}
	}
	return out, nil
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
