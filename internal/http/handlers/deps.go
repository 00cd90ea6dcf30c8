package handlers

import (
	"handmade/internal/config"
	"handmade/internal/feed"
	"handmade/internal/repos"
	"handmade/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth *services.AuthService
	Hub  *feed.Hub

	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	CartHandler     *CartHandler
	FavoriteHandler *FavoriteHandler
	FeedbackHandler *FeedbackHandler
	VendorHandler   *VendorHandler
	AdminHandler    *AdminHandler
	LiveHandler     *LiveHandler
}

// NewDeps wires repositories, services and handlers. cache may be nil; extra
// receives every domain event after the live feed hub does.
func NewDeps(db *sqlx.DB, cfg config.Config, cache services.RatingCache, extra services.EventDispatcher) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	favRepo := repos.NewFavoriteRepo(db)
	fbRepo := repos.NewFeedbackRepo(db)
	userRepo := repos.NewUserRepo(db)

	ratings := services.NewRatingService(fbRepo, cache)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, favRepo, ratings, nil)
	hub := feed.NewHub(catalogSvc.Snapshot)

	var events services.EventDispatcher = hub
	if extra != nil {
		events = services.Dispatchers{hub, extra}
	}
	catalogSvc.Events = events

	authSvc := &services.AuthService{Users: userRepo}
	cartSvc := services.NewCartService(db, cartRepo, prodRepo, events)
	orderSvc := services.NewOrderService(db, cartRepo, orderRepo, events)
	favSvc := services.NewFavoriteService(db, favRepo, prodRepo, events)
	fbSvc := services.NewFeedbackService(fbRepo, prodRepo, ratings, events)
	vendorSvc := services.NewVendorService(catRepo, prodRepo, events)
	adminSvc := services.NewAdminService(userRepo, prodRepo, orderRepo, fbRepo, catalogSvc, events)

	return &Deps{
		Auth: authSvc,
		Hub:  hub,

		AuthHandler:     &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc, Feedback: fbSvc},
		CartHandler:     &CartHandler{Cart: cartSvc, OrderSvc: orderSvc},
		FavoriteHandler: &FavoriteHandler{Favs: favSvc},
		FeedbackHandler: &FeedbackHandler{Feedback: fbSvc},
		VendorHandler:   &VendorHandler{Vendor: vendorSvc},
		AdminHandler:    &AdminHandler{Admin: adminSvc, Catalog: catalogSvc, Feedback: fbSvc},
		LiveHandler:     &LiveHandler{Hub: hub, KeepAlive: liveKeepAlive},
	}
}
