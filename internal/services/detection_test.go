package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/safetrade/safetrade-backend/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDetectDangerousProductByID(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewDetectionService(db, NewClassifier(nil))

	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "status"}).
			AddRow(42, 5, "hunting weapon", "barely used", "ACTIVE"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "incidents" (.+) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	dangerous, err := svc.DetectDangerousProductByID(context.Background(), 42)

	require.NoError(t, err)
	assert.True(t, dangerous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetectDangerousProductByIDSafe(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewDetectionService(db, NewClassifier(nil))

	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "status"}).
			AddRow(42, 5, "wooden bookshelf", "three shelves, good shape", "ACTIVE"))

	dangerous, err := svc.DetectDangerousProductByID(context.Background(), 42)

	require.NoError(t, err)
	assert.False(t, dangerous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetectDangerousProductByIDNotFound(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewDetectionService(db, NewClassifier(nil))

	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.DetectDangerousProductByID(context.Background(), 404)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDetectDangerousProductByIDIncidentInsertFailureIsSwallowed(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewDetectionService(db, NewClassifier(nil))

	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "status"}).
			AddRow(42, 5, "hunting weapon", "barely used", "ACTIVE"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "incidents" (.+) RETURNING "id"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	dangerous, err := svc.DetectDangerousProductByID(context.Background(), 42)

	// The verdict stands even when the system incident cannot be persisted.
	require.NoError(t, err)
	assert.True(t, dangerous)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetectDangerousProducts(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewDetectionService(db, NewClassifier(nil))

	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "description", "status"}).
			AddRow(1, 5, "wooden bookshelf", "three shelves", "ACTIVE").
			AddRow(2, 6, "counterfeit handbag", "looks real", "ACTIVE").
			AddRow(3, 7, "mountain bike", "needs new tires", "ACTIVE"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "incidents" (.+) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	dangerous, err := svc.DetectDangerousProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, dangerous, 1)
	assert.Equal(t, uint(2), dangerous[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
