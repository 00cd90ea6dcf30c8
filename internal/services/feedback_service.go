package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"handmade/internal/domain"
	"handmade/internal/repos"
	"handmade/internal/validate"
)

const FeedbackPageSize = 10

type FeedbackService struct {
	Feedback *repos.FeedbackRepo
	Prods    *repos.ProductRepo
	Ratings  *RatingService
	Events   EventDispatcher
}

func NewFeedbackService(fb *repos.FeedbackRepo, prods *repos.ProductRepo, ratings *RatingService, events EventDispatcher) *FeedbackService {
	return &FeedbackService{Feedback: fb, Prods: prods, Ratings: ratings, Events: events}
}

// Submit stores a rating (0 = comment only) and/or comment for a product.
func (s *FeedbackService) Submit(ctx context.Context, userID, productID string, rating int, comment string) (domain.Feedback, error) {
	if userID == "" {
		return domain.Feedback{}, ErrForbidden
	}
	if !validate.Rating(rating) {
		return domain.Feedback{}, invalid("rating must be between 0 and 5")
	}
	comment, ok := validate.Comment(comment)
	if !ok {
		return domain.Feedback{}, invalid("comment must be at most 500 characters")
	}
	if rating == 0 && comment == "" {
		return domain.Feedback{}, invalid("a rating or a comment is required")
	}
	if _, err := s.Prods.Get(productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Feedback{}, ErrProductNotFound
		}
		return domain.Feedback{}, err
	}

	f := domain.Feedback{ID: uuid.NewString(), ProductID: productID, UserID: userID, Rating: rating, Comment: comment}
	if err := s.Feedback.Create(f); err != nil {
		return domain.Feedback{}, errors.Wrap(err, "create feedback")
	}
	s.Ratings.Forget(ctx, productID)
	announce(s.Events, domain.FeedbackSubmitted{FeedbackID: f.ID, ProductID: productID, UserID: userID, Rating: rating, At: time.Now().UTC()})
	return s.Feedback.Get(f.ID)
}

func (s *FeedbackService) ListForProduct(ctx context.Context, productID string) ([]domain.Feedback, error) {
	return s.Feedback.ByProduct(productID)
}

type FeedbackPage struct {
	Items []domain.Feedback `json:"items"`
	Page  domain.Page       `json:"page"`
}

func (s *FeedbackService) List(ctx context.Context, page int) (FeedbackPage, error) {
	total, err := s.Feedback.Count()
	if err != nil {
		return FeedbackPage{}, err
	}
	pg := domain.NewPage(page, FeedbackPageSize, total)
	items, err := s.Feedback.List(pg.Size, pg.Offset())
	if err != nil {
		return FeedbackPage{}, err
	}
	return FeedbackPage{Items: items, Page: pg}, nil
}

func (s *FeedbackService) Delete(ctx context.Context, id string) error {
	f, err := s.Feedback.Get(id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := s.Feedback.Delete(id); err != nil {
		return err
	}
	s.Ratings.Forget(ctx, f.ProductID)
	announce(s.Events, domain.FeedbackDeleted{FeedbackID: id, ProductID: f.ProductID, At: time.Now().UTC()})
	return nil
}
