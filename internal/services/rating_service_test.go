package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratewise/store-ratings/internal/apperr"
	"github.com/ratewise/store-ratings/internal/models"
	"github.com/ratewise/store-ratings/internal/repository/memory"
)

func newRatingFixture(t *testing.T) (*RatingService, memory.Repositories, models.Store) {
	t.Helper()
	repos := memory.NewRepositories()
	svc := NewRatingService(repos.Stores, repos.Ratings)

	owner := seedUser(t, repos, "Olive Owner", "olive@example.com", models.RoleOwner)
	store, err := repos.Stores.Create(context.Background(), models.Store{
		Name: "Corner Shop", Email: "shop@example.com", OwnerID: &owner.ID,
	})
	require.NoError(t, err)
	return svc, repos, store
}

func TestRateStore_Range(t *testing.T) {
	svc, repos, store := newRatingFixture(t)
	ctx := context.Background()
	u := seedUser(t, repos, "Uma", "uma@example.com", models.RoleUser)

	for _, v := range []int{0, 6, -1, 100} {
		_, _, err := svc.RateStore(ctx, u.ID, store.ID, v)
		assert.ErrorIs(t, err, apperr.ErrValidation, "rating %d", v)
	}
	for _, v := range []int{1, 5} {
		_, _, err := svc.RateStore(ctx, u.ID, store.ID, v)
		assert.NoError(t, err, "rating %d", v)
	}
}

func TestRateStore_UnknownStore(t *testing.T) {
	svc, repos, _ := newRatingFixture(t)
	u := seedUser(t, repos, "Uma", "uma@example.com", models.RoleUser)

	_, _, err := svc.RateStore(context.Background(), u.ID, "missing-store", 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRateStore_UpsertKeepsOneRow(t *testing.T) {
	svc, repos, store := newRatingFixture(t)
	ctx := context.Background()
	u := seedUser(t, repos, "Uma", "uma@example.com", models.RoleUser)

	_, created, err := svc.RateStore(ctx, u.ID, store.ID, 4)
	require.NoError(t, err)
	assert.True(t, created)

	rt, created, err := svc.RateStore(ctx, u.ID, store.ID, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, rt.Rating)

	n, err := repos.Ratings.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// average recomputes from the single remaining row
	avg, err := repos.Ratings.AverageForStore(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, avg)
}

func TestListStoresForUser(t *testing.T) {
	svc, repos, store := newRatingFixture(t)
	ctx := context.Background()

	u1 := seedUser(t, repos, "Uma", "uma@example.com", models.RoleUser)
	u2 := seedUser(t, repos, "Vic", "vic@example.com", models.RoleUser)

	_, _, err := svc.RateStore(ctx, u1.ID, store.ID, 4)
	require.NoError(t, err)
	_, _, err = svc.RateStore(ctx, u2.ID, store.ID, 2)
	require.NoError(t, err)

	stores, err := svc.ListStoresForUser(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, stores, 1)

	// average over everyone's ratings, own rating as a separate column
	assert.Equal(t, 3.0, stores[0].AverageRating)
	require.NotNil(t, stores[0].UserRating)
	assert.Equal(t, 4, *stores[0].UserRating)

	// a user who never rated gets a nil own rating
	stores, err = svc.ListStoresForUser(ctx, "someone-else")
	require.NoError(t, err)
	assert.Nil(t, stores[0].UserRating)
}

func TestOwnerDashboard(t *testing.T) {
	svc, repos, store := newRatingFixture(t)
	ctx := context.Background()

	u1 := seedUser(t, repos, "Uma", "uma@example.com", models.RoleUser)
	u2 := seedUser(t, repos, "Vic", "vic@example.com", models.RoleUser)
	_, _, err := svc.RateStore(ctx, u1.ID, store.ID, 4)
	require.NoError(t, err)
	_, _, err = svc.RateStore(ctx, u2.ID, store.ID, 2)
	require.NoError(t, err)

	require.NotNil(t, store.OwnerID)
	dash, err := svc.Dashboard(ctx, *store.OwnerID)
	require.NoError(t, err)

	assert.Equal(t, store.ID, dash.Store.ID)
	assert.Equal(t, 3.0, dash.AverageRating)
	require.Len(t, dash.Ratings, 2)
	names := []string{dash.Ratings[0].UserName, dash.Ratings[1].UserName}
	assert.ElementsMatch(t, []string{"Uma", "Vic"}, names)
}

func TestOwnerDashboard_NoStore(t *testing.T) {
	svc, repos, _ := newRatingFixture(t)
	stray := seedUser(t, repos, "No Store", "nostore@example.com", models.RoleOwner)

	_, err := svc.Dashboard(context.Background(), stray.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAverage_EmptyIsZero(t *testing.T) {
	svc, _, store := newRatingFixture(t)

	stores, err := svc.ListStoresForUser(context.Background(), "anyone")
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, 0.0, stores[0].AverageRating)

	require.NotNil(t, store.OwnerID)
	dash, err := svc.Dashboard(context.Background(), *store.OwnerID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dash.AverageRating)
	assert.Empty(t, dash.Ratings)
}
