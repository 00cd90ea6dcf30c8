package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"handmade/internal/domain"
	"handmade/internal/repos"
	"handmade/internal/services"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Dispatch(e domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type()
	}
	return out
}

type mapCache struct {
	mu   sync.Mutex
	m    map[string]float64
	hits int
}

func newMapCache() *mapCache { return &mapCache{m: map[string]float64{}} }

func (c *mapCache) Get(_ context.Context, id string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[id]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, id string, avg float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id] = avg
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.m, id)
	}
	return nil
}

type stack struct {
	db       *sqlx.DB
	events   *recorder
	cache    *mapCache
	users    *repos.UserRepo
	prods    *repos.ProductRepo
	carts    *repos.CartRepo
	auth     *services.AuthService
	ratings  *services.RatingService
	catalog  *services.CatalogService
	vendor   *services.VendorService
	favs     *services.FavoriteService
	cart     *services.CartService
	orders   *services.OrderService
	feedback *services.FeedbackService
	admin    *services.AdminService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := &stack{db: db, events: &recorder{}, cache: newMapCache()}
	s.users = repos.NewUserRepo(db)
	s.prods = repos.NewProductRepo(db)
	s.carts = repos.NewCartRepo(db)
	cats := repos.NewCategoryRepo(db)
	favRepo := repos.NewFavoriteRepo(db)
	fbRepo := repos.NewFeedbackRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	s.auth = &services.AuthService{Users: s.users}
	s.ratings = services.NewRatingService(fbRepo, s.cache)
	s.catalog = services.NewCatalogService(cats, s.prods, favRepo, s.ratings, s.events)
	s.vendor = services.NewVendorService(cats, s.prods, s.events)
	s.favs = services.NewFavoriteService(db, favRepo, s.prods, s.events)
	s.cart = services.NewCartService(db, s.carts, s.prods, s.events)
	s.orders = services.NewOrderService(db, s.carts, orderRepo, s.events)
	s.feedback = services.NewFeedbackService(fbRepo, s.prods, s.ratings, s.events)
	s.admin = services.NewAdminService(s.users, s.prods, orderRepo, fbRepo, s.catalog, s.events)
	return s
}

func (s *stack) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := s.users.ByID(id)
	require.NoError(t, err)
	return u
}

func (s *stack) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := s.prods.Get(id)
	require.NoError(t, err)
	return p.Stock
}
