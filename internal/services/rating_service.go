package services

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"handmade/internal/domain"
	applog "handmade/internal/log"
	"handmade/internal/repos"
)

// RatingCache stores computed averages. Implementations may be remote; every
// error is treated as a miss.
type RatingCache interface {
	Get(ctx context.Context, productID string) (float64, bool, error)
	Set(ctx context.Context, productID string, avg float64) error
	Invalidate(ctx context.Context, productIDs ...string) error
}

type RatingService struct {
	Feedback *repos.FeedbackRepo
	Cache    RatingCache // optional
}

func NewRatingService(fb *repos.FeedbackRepo, cache RatingCache) *RatingService {
	return &RatingService{Feedback: fb, Cache: cache}
}

// AverageOf averages the ratings above zero, rounded half away from zero to
// one decimal place. No rated entries gives 0.
func AverageOf(ratings []int) float64 {
	sum, n := int64(0), int64(0)
	for _, r := range ratings {
		if r > 0 {
			sum += int64(r)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	avg, _ := decimal.NewFromInt(sum).Div(decimal.NewFromInt(n)).Round(1).Float64()
	return avg
}

func (s *RatingService) AverageRating(ctx context.Context, productID string) (float64, error) {
	if avg, ok := s.cached(ctx, productID); ok {
		return avg, nil
	}
	rows, err := s.Feedback.ByProduct(productID)
	if err != nil {
		return 0, err
	}
	avg := AverageOf(ratingsOf(rows))
	s.store(ctx, productID, avg)
	return avg, nil
}

// AverageRatings resolves many products at once: cache lookups run
// concurrently, misses are computed from a single feedback query.
func (s *RatingService) AverageRatings(ctx context.Context, productIDs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	missing := productIDs
	if s.Cache != nil {
		var mu sync.Mutex
		missing = nil
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for _, id := range productIDs {
			id := id
			g.Go(func() error {
				avg, ok := s.cached(gctx, id)
				mu.Lock()
				defer mu.Unlock()
				if ok {
					out[id] = avg
				} else {
					missing = append(missing, id)
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	if len(missing) == 0 {
		return out, nil
	}

	rows, err := s.Feedback.ByProducts(missing)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]int, len(missing))
	for _, f := range rows {
		grouped[f.ProductID] = append(grouped[f.ProductID], f.Rating)
	}
	for _, id := range missing {
		avg := AverageOf(grouped[id])
		out[id] = avg
		s.store(ctx, id, avg)
	}
	return out, nil
}

// Forget drops cached averages after feedback changes.
func (s *RatingService) Forget(ctx context.Context, productIDs ...string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, productIDs...); err != nil {
		applog.Logger().Warn().Err(err).Strs("products", productIDs).Msg("rating cache invalidate failed")
	}
}

func (s *RatingService) cached(ctx context.Context, id string) (float64, bool) {
	if s.Cache == nil {
		return 0, false
	}
	avg, ok, err := s.Cache.Get(ctx, id)
	if err != nil {
		applog.Logger().Warn().Err(err).Str("product", id).Msg("rating cache read failed")
		return 0, false
	}
	return avg, ok
}

func (s *RatingService) store(ctx context.Context, id string, avg float64) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, id, avg); err != nil {
		applog.Logger().Warn().Err(err).Str("product", id).Msg("rating cache write failed")
	}
}

func ratingsOf(rows []domain.Feedback) []int {
	out := make([]int, len(rows))
	for i, f := range rows {
		out[i] = f.Rating
	}
	return out
}
