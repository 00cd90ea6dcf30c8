package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"handmade/internal/domain"
	"handmade/internal/repos"
)

type FavoriteService struct {
	DB     *sqlx.DB
	Favs   *repos.FavoriteRepo
	Prods  *repos.ProductRepo
	Events EventDispatcher
}

func NewFavoriteService(db *sqlx.DB, favs *repos.FavoriteRepo, prods *repos.ProductRepo, events EventDispatcher) *FavoriteService {
	return &FavoriteService{DB: db, Favs: favs, Prods: prods, Events: events}
}

// Toggle flips the user's mark on productID and reports the resulting state.
// On error nothing is written.
func (s *FavoriteService) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	if userID == "" {
		return false, ErrForbidden
	}
	var marked bool
	err := repos.WithTx(s.DB, func(tx *sqlx.Tx) error {
		p, err := s.Prods.GetTx(tx, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		exists, err := s.Favs.Exists(tx, userID, productID)
		if err != nil {
			return err
		}
		if exists {
			return s.Favs.Remove(tx, userID, productID)
		}
		marked = true
		return s.Favs.Add(tx, userID, p)
	})
	if err != nil {
		return false, err
	}
	announce(s.Events, domain.FavoriteToggled{UserID: userID, ProductID: productID, Favorite: marked, At: time.Now().UTC()})
	return marked, nil
}

func (s *FavoriteService) Marks(ctx context.Context, userID string, productIDs []string) (map[string]bool, error) {
	return s.Favs.Marked(userID, productIDs)
}

func (s *FavoriteService) List(ctx context.Context, userID string) ([]domain.Favorite, error) {
	return s.Favs.List(userID)
}
