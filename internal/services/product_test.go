package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/safetrade/safetrade-backend/internal/models"
	"github.com/safetrade/safetrade-backend/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductFilterValidateAndNormalize(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		filter := ProductFilter{}
		require.NoError(t, filter.ValidateAndNormalize())
		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, DefaultPageSize, filter.Limit)
	})

	t.Run("limit capped", func(t *testing.T) {
		filter := ProductFilter{Limit: 500}
		require.NoError(t, filter.ValidateAndNormalize())
		assert.Equal(t, MaxPageSize, filter.Limit)
	})

	t.Run("inverted price range rejected", func(t *testing.T) {
		filter := ProductFilter{MinPrice: 100, MaxPrice: 10}
		err := filter.ValidateAndNormalize()
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("negative price rejected", func(t *testing.T) {
		filter := ProductFilter{MinPrice: -1}
		err := filter.ValidateAndNormalize()
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("whitespace trimmed", func(t *testing.T) {
		filter := ProductFilter{Search: "  couch ", City: " Paris "}
		require.NoError(t, filter.ValidateAndNormalize())
		assert.Equal(t, "couch", filter.Search)
		assert.Equal(t, "Paris", filter.City)
	})
}

func TestChangeStatus(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewProductService(db, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET (.+)`).
		WithArgs("SUSPENDED", sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.ChangeStatus(context.Background(), 42, models.ProductStatusSuspended)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatusNotFound(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewProductService(db, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.ChangeStatus(context.Background(), 404, models.ProductStatusSuspended)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProductByIDOnlyActive(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewProductService(db, nil, nil, nil)

	// A suspended product is invisible to the public lookup.
	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE id = (.+) AND status = (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "status"}))

	_, err := svc.GetProductByID(context.Background(), 42)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProductByIDZero(t *testing.T) {
	db, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewProductService(db, nil, nil, nil)

	_, err := svc.GetProductByID(context.Background(), 0)

	assert.ErrorIs(t, err, ErrInvalidFilter)
}
