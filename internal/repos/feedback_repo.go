package repos

import (
	"handmade/internal/domain"

	"github.com/jmoiron/sqlx"
)

type FeedbackRepo struct{ db *sqlx.DB }

func NewFeedbackRepo(db *sqlx.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

const feedbackCols = `id, product_id, user_id, rating, comment, COALESCE(created_at,'') AS created_at`

func (r *FeedbackRepo) Create(f domain.Feedback) error {
	_, err := r.db.Exec(`
	  INSERT INTO feedbacks(id, product_id, user_id, rating, comment, created_at)
	  VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, f.ID, f.ProductID, f.UserID, f.Rating, f.Comment)
	return err
}

func (r *FeedbackRepo) Get(id string) (domain.Feedback, error) {
	var f domain.Feedback
	err := r.db.Get(&f, `SELECT `+feedbackCols+` FROM feedbacks WHERE id = ?`, id)
	return f, err
}

func (r *FeedbackRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM feedbacks WHERE id = ?`, id)
	return err
}

func (r *FeedbackRepo) ByProduct(productID string) ([]domain.Feedback, error) {
	out := []domain.Feedback{}
	err := r.db.Select(&out, `SELECT `+feedbackCols+` FROM feedbacks WHERE product_id = ? ORDER BY created_at DESC, id`, productID)
	return out, err
}

// ByProducts returns every feedback entry for the given products.
func (r *FeedbackRepo) ByProducts(productIDs []string) ([]domain.Feedback, error) {
	out := []domain.Feedback{}
	if len(productIDs) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+feedbackCols+` FROM feedbacks WHERE product_id IN (?)`, productIDs)
	if err != nil {
		return nil, err
	}
	err = r.db.Select(&out, r.db.Rebind(q), args...)
	return out, err
}

func (r *FeedbackRepo) List(limit, offset int) ([]domain.Feedback, error) {
	out := []domain.Feedback{}
	err := r.db.Select(&out, `SELECT `+feedbackCols+` FROM feedbacks ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	return out, err
}

func (r *FeedbackRepo) Count() (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM feedbacks`)
	return n, err
}
