package repos

import (
	"fmt"
	"strings"

	"handmade/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// ErrInsufficientStock is returned by DecrementStock when the conditional update matched nothing.
var ErrInsufficientStock = fmt.Errorf("insufficient stock")

const productCols = `
    p.id, p.vendor_id, p.category_id, COALESCE(c.name,'') AS category_name,
    p.title, p.description, p.price, p.stock, p.img_url, p.status,
    COALESCE(p.created_at,'') AS created_at, COALESCE(p.updated_at,'') AS updated_at`

const productFrom = `
  FROM products p LEFT JOIN categories c ON c.id = p.category_id`

// ProductFilter narrows listing queries. Empty fields match everything.
type ProductFilter struct {
	Status        string
	Category      string // category id or name, case-insensitive
	ExcludeVendor string
	VendorID      string
	Query         string // lower-cased keyword over title/description
}

// likeEscaper makes a search term match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f ProductFilter) where() (string, []any) {
	where := `1 = 1`
	args := []any{}
	if f.Status != "" {
		where += ` AND p.status = ?`
		args = append(args, f.Status)
	}
	if f.Category != "" {
		where += ` AND (p.category_id = ? OR LOWER(c.name) = LOWER(?))`
		args = append(args, f.Category, f.Category)
	}
	if f.ExcludeVendor != "" {
		where += ` AND p.vendor_id != ?`
		args = append(args, f.ExcludeVendor)
	}
	if f.VendorID != "" {
		where += ` AND p.vendor_id = ?`
		args = append(args, f.VendorID)
	}
	if f.Query != "" {
		where += ` AND (LOWER(p.title) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\')`
		pat := "%" + likeEscaper.Replace(f.Query) + "%"
		args = append(args, pat, pat)
	}
	return where, args
}

// List returns products matching f, newest first. limit <= 0 means no limit.
func (r *ProductRepo) List(f ProductFilter, limit, offset int) ([]domain.Product, error) {
	where, args := f.where()
	q := `SELECT ` + productCols + productFrom + ` WHERE ` + where + `
	  ORDER BY p.created_at DESC, p.id`
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	out := []domain.Product{}
	err := r.db.Select(&out, q, args...)
	return out, err
}

func (r *ProductRepo) Count(f ProductFilter) (int, error) {
	where, args := f.where()
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*)`+productFrom+` WHERE `+where, args...)
	return n, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	return getProduct(r.db, id)
}

func getProduct(q sqlx.Queryer, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.Get(q, &p, `SELECT `+productCols+productFrom+` WHERE p.id = ?`, id)
	return p, err
}

func (r *ProductRepo) Create(p domain.Product) error {
	_, err := r.db.Exec(`
	  INSERT INTO products(id, vendor_id, category_id, title, description, price, stock, img_url, status, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.ID, p.VendorID, p.CategoryID, p.Title, p.Description, p.Price, p.Stock, p.ImgURL, p.Status)
	return err
}

// Update rewrites the editable fields of a vendor's product.
func (r *ProductRepo) Update(p domain.Product) error {
	_, err := r.db.Exec(`
	  UPDATE products
	  SET category_id = ?, title = ?, description = ?, price = ?, stock = ?, img_url = ?, status = ?,
	      updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND vendor_id = ?
	`, p.CategoryID, p.Title, p.Description, p.Price, p.Stock, p.ImgURL, p.Status, p.ID, p.VendorID)
	return err
}

func (r *ProductRepo) SetStatus(id, status string) (bool, error) {
	res, err := r.db.Exec(`UPDATE products SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete removes the product; cart lines, favorites and feedback cascade.
func (r *ProductRepo) Delete(id, vendorID string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM products WHERE id = ? AND vendor_id = ?`, id, vendorID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DecrementStock subtracts by units only if enough stock exists and returns the new level.
func (r *ProductRepo) DecrementStock(tx *sqlx.Tx, id string, by int) (int, error) {
	res, err := tx.Exec(`
		UPDATE products
		SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, by, id, by)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return 0, ErrInsufficientStock
	}
	var left int
	err = tx.Get(&left, `SELECT stock FROM products WHERE id = ?`, id)
	return left, err
}

// RestoreStock puts units back, e.g. when a cart line is dropped.
func (r *ProductRepo) RestoreStock(tx *sqlx.Tx, id string, by int) (int, error) {
	if _, err := tx.Exec(`UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, by, id); err != nil {
		return 0, err
	}
	var left int
	err := tx.Get(&left, `SELECT stock FROM products WHERE id = ?`, id)
	return left, err
}

// GetTx reads a product inside tx.
func (r *ProductRepo) GetTx(tx *sqlx.Tx, id string) (domain.Product, error) {
	return getProduct(tx, id)
}

// StatusCounts groups products by status.
func (r *ProductRepo) StatusCounts() (map[string]int, error) {
	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.Select(&rows, `SELECT status, COUNT(*) AS n FROM products GROUP BY status`); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
