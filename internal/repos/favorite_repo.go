package repos

import (
	"handmade/internal/domain"

	"github.com/jmoiron/sqlx"
)

type FavoriteRepo struct{ db *sqlx.DB }

func NewFavoriteRepo(db *sqlx.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Exists reports whether the user's mark for productID is stored.
func (r *FavoriteRepo) Exists(tx *sqlx.Tx, userID, productID string) (bool, error) {
	var n int
	err := tx.Get(&n, `SELECT COUNT(*) FROM favorites WHERE id = ?`, LineID(userID, productID))
	return n > 0, err
}

func (r *FavoriteRepo) Add(tx *sqlx.Tx, userID string, p domain.Product) error {
	_, err := tx.Exec(`
	  INSERT INTO favorites(id, user_id, product_id, title, img_url, price, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(id) DO NOTHING
	`, LineID(userID, p.ID), userID, p.ID, p.Title, p.ImgURL, p.Price)
	return err
}

func (r *FavoriteRepo) Remove(tx *sqlx.Tx, userID, productID string) error {
	_, err := tx.Exec(`DELETE FROM favorites WHERE id = ?`, LineID(userID, productID))
	return err
}

func (r *FavoriteRepo) List(userID string) ([]domain.Favorite, error) {
	out := []domain.Favorite{}
	err := r.db.Select(&out, `
	  SELECT id, user_id, product_id, title, img_url, price, COALESCE(created_at,'') AS created_at
	  FROM favorites
	  WHERE user_id = ?
	  ORDER BY created_at DESC, title
	`, userID)
	return out, err
}

// Marked returns the subset of productIDs the user has favorited.
func (r *FavoriteRepo) Marked(userID string, productIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT product_id FROM favorites WHERE user_id = ? AND product_id IN (?)`, userID, productIDs)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := r.db.Select(&ids, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
