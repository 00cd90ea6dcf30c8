package repos

import (
	"handmade/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// LineID is the key of a user's cart line for a product.
func LineID(userID, productID string) string { return userID + "_" + productID }

const cartCols = `id, user_id, product_id, quantity, title, price, img_url,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

// Line reads a cart line inside tx; sql.ErrNoRows when absent.
func (r *CartRepo) Line(tx *sqlx.Tx, userID, productID string) (domain.CartItem, error) {
	var it domain.CartItem
	err := tx.Get(&it, `SELECT `+cartCols+` FROM cart_items WHERE id = ?`, LineID(userID, productID))
	return it, err
}

func (r *CartRepo) Increment(tx *sqlx.Tx, userID, productID string, by int) error {
	_, err := tx.Exec(`
		UPDATE cart_items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, by, LineID(userID, productID))
	return err
}

// Insert snapshots the product's title, price and image into a new line.
func (r *CartRepo) Insert(tx *sqlx.Tx, userID string, p domain.Product, qty int) error {
	_, err := tx.Exec(`
		INSERT INTO cart_items(id, user_id, product_id, quantity, title, price, img_url, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, LineID(userID, p.ID), userID, p.ID, qty, p.Title, p.Price, p.ImgURL)
	return err
}

func (r *CartRepo) DeleteLine(tx *sqlx.Tx, userID, productID string) error {
	_, err := tx.Exec(`DELETE FROM cart_items WHERE id = ?`, LineID(userID, productID))
	return err
}

func (r *CartRepo) Items(userID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := r.db.Select(&out, `SELECT `+cartCols+` FROM cart_items WHERE user_id = ? ORDER BY created_at, id`, userID)
	return out, err
}

// ItemsTx is Items inside tx.
func (r *CartRepo) ItemsTx(tx *sqlx.Tx, userID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := tx.Select(&out, `SELECT `+cartCols+` FROM cart_items WHERE user_id = ? ORDER BY created_at, id`, userID)
	return out, err
}

func (r *CartRepo) Clear(tx *sqlx.Tx, userID string) error {
	_, err := tx.Exec(`DELETE FROM cart_items WHERE user_id = ?`, userID)
	return err
}
