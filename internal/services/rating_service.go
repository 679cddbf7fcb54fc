package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ratewise/store-ratings/internal/apperr"
	"github.com/ratewise/store-ratings/internal/metrics"
	"github.com/ratewise/store-ratings/internal/models"
	repo "github.com/ratewise/store-ratings/internal/repository"
)

// RatingService covers the user and owner facing rating operations.
type RatingService struct {
	stores  repo.Stores
	ratings repo.Ratings
}

func NewRatingService(stores repo.Stores, ratings repo.Ratings) *RatingService {
	return &RatingService{stores: stores, ratings: ratings}
}

func (s *RatingService) ListStoresForUser(ctx context.Context, userID string) ([]models.StoreSummary, error) {
	return s.stores.ListForUser(ctx, userID)
}

// RateStore submits or overwrites the caller's rating for a store.
// Created reports whether this was the first rating for the pair; after
// the call exactly one row exists for it either way.
func (s *RatingService) RateStore(ctx context.Context, userID, storeID string, value int) (models.Rating, bool, error) {
	if storeID == "" {
		return models.Rating{}, false, fmt.Errorf("%w: storeId required", apperr.ErrValidation)
	}
	if !models.ValidRating(value) {
		return models.Rating{}, false, fmt.Errorf("%w: rating must be between %d and %d",
			apperr.ErrValidation, models.RatingMin, models.RatingMax)
	}
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Rating{}, false, fmt.Errorf("%w: store not found", apperr.ErrNotFound)
		}
		return models.Rating{}, false, err
	}
	rt, created, err := s.ratings.Upsert(ctx, userID, storeID, value)
	if err != nil {
		return models.Rating{}, false, err
	}
	if created {
		metrics.RatingsSubmitted.WithLabelValues("created").Inc()
	} else {
		metrics.RatingsSubmitted.WithLabelValues("updated").Inc()
	}
	return rt, created, nil
}

type OwnerDashboard struct {
	Store         models.Store         `json:"store"`
	AverageRating float64              `json:"averageRating"`
	Ratings       []models.StoreRating `json:"ratings"`
}

// Dashboard resolves the store owned by ownerID and returns its ratings
// newest first with the rounded average, zero when nobody rated yet.
func (s *RatingService) Dashboard(ctx context.Context, ownerID string) (OwnerDashboard, error) {
	store, err := s.stores.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return OwnerDashboard{}, fmt.Errorf("%w: no store found for this owner", apperr.ErrNotFound)
		}
		return OwnerDashboard{}, err
	}
	ratings, err := s.ratings.ListByStore(ctx, store.ID)
	if err != nil {
		return OwnerDashboard{}, err
	}
	avg, err := s.ratings.AverageForStore(ctx, store.ID)
	if err != nil {
		return OwnerDashboard{}, err
	}
	return OwnerDashboard{Store: store, AverageRating: avg, Ratings: ratings}, nil
}
