package repos

import (
	"handmade/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, customer_name, customer_email, total, status, COALESCE(created_at,'') AS created_at`

// Create inserts the order header and its lines inside tx.
func (r *OrderRepo) Create(tx *sqlx.Tx, o domain.Order) error {
	if _, err := tx.Exec(`
	  INSERT INTO orders(id, user_id, customer_name, customer_email, total, status, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, o.ID, o.UserID, o.CustomerName, o.CustomerEmail, o.Total, o.Status); err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, title, quantity, price)
		  VALUES(?, ?, ?, ?, ?)
		`, o.ID, it.ProductID, it.Title, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return domain.Order{}, err
	}
	items := []domain.OrderItem{}
	if err := r.db.Select(&items, `
		SELECT order_id, product_id, title, quantity, price
		FROM order_items WHERE order_id = ? ORDER BY title
	`, id); err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.Select(&out, `SELECT `+orderCols+` FROM orders WHERE user_id = ? ORDER BY datetime(created_at) DESC, id`, userID)
	return out, err
}

// List returns orders newest first, optionally restricted to one status.
func (r *OrderRepo) List(status string, limit, offset int) ([]domain.Order, error) {
	out := []domain.Order{}
	q := `SELECT ` + orderCols + ` FROM orders`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY datetime(created_at) DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	err := r.db.Select(&out, q, args...)
	return out, err
}

func (r *OrderRepo) Count(status string) (int, error) {
	var n int
	if status == "" {
		err := r.db.Get(&n, `SELECT COUNT(*) FROM orders`)
		return n, err
	}
	err := r.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE status = ?`, status)
	return n, err
}

func (r *OrderRepo) StatusCounts() (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM orders GROUP BY status`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *OrderRepo) UpdateStatus(id, status string) (bool, error) {
	res, err := r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
