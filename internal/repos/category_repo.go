package repos

import (
	"handmade/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List() ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.Select(&out, `
	  SELECT id, name, COALESCE(created_at,'') AS created_at
	  FROM categories
	  ORDER BY name
	`)
	return out, err
}

func (r *CategoryRepo) Get(id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.Get(&c, `SELECT id, name, COALESCE(created_at,'') AS created_at FROM categories WHERE id = ?`, id)
	return c, err
}

func (r *CategoryRepo) Create(id, name string) error {
	_, err := r.db.Exec(`INSERT INTO categories(id,name,created_at) VALUES(?,?,CURRENT_TIMESTAMP)`, id, name)
	return err
}

// InUse reports how many products still reference the category.
func (r *CategoryRepo) InUse(id string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products WHERE category_id = ?`, id)
	return n, err
}

func (r *CategoryRepo) Delete(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
