package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/safetrade/safetrade-backend/internal/models"
	"github.com/safetrade/safetrade-backend/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func incidentColumns() []string {
	return []string{
		"id", "product_id", "type", "comment", "reporter_id",
		"status", "phase", "moderator_id", "appeal_moderator_id", "appeal_reason",
	}
}

func TestResolvedProductStatus(t *testing.T) {
	tests := []struct {
		name        string
		phase       models.IncidentPhase
		finalStatus models.IncidentStatus
		want        models.ProductStatus
	}{
		{"first strike suspends", models.IncidentPhaseInitial, models.IncidentStatusAccepted, models.ProductStatusSuspended},
		{"appeal acceptance bans", models.IncidentPhaseAppeal, models.IncidentStatusAccepted, models.ProductStatusBanned},
		{"initial rejection restores", models.IncidentPhaseInitial, models.IncidentStatusRejected, models.ProductStatusActive},
		{"appeal rejection restores", models.IncidentPhaseAppeal, models.IncidentStatusRejected, models.ProductStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolvedProductStatus(tt.phase, tt.finalStatus)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := resolvedProductStatus(models.IncidentPhaseInitial, models.IncidentStatusPending)
	assert.False(t, ok)
}

func TestCreateReport(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "incidents" (.+) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "products" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	comment := "selling restricted items"
	incident, err := svc.CreateReport(context.Background(), CreateReportRequest{
		ProductID:  42,
		Type:       models.IncidentTypeFraud,
		Comment:    &comment,
		ReporterID: "5",
	})

	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusPending, incident.Status)
	assert.Equal(t, models.IncidentPhaseInitial, incident.Phase)
	assert.Equal(t, "5", incident.ReporterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReportProductMissing(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "incidents" (.+) RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "products" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CreateReport(context.Background(), CreateReportRequest{
		ProductID:  999,
		Type:       models.IncidentTypeFraud,
		ReporterID: "5",
	})

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReportInvalidType(t *testing.T) {
	db, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	_, err := svc.CreateReport(context.Background(), CreateReportRequest{
		ProductID:  42,
		Type:       "SOMETHING_ELSE",
		ReporterID: "5",
	})

	assert.ErrorIs(t, err, ErrInvalidIncidentType)
}

func TestAssignModeratorPending(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "PENDING", "INITIAL", nil, nil, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(7, "mod@safetrade.app", "moderator", true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "incidents" SET (.+) WHERE id = (.+) AND moderator_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "PENDING", "INITIAL", 7, nil, nil))

	incident, err := svc.AssignModerator(context.Background(), 1, 7)

	require.NoError(t, err)
	require.NotNil(t, incident.ModeratorID)
	assert.Equal(t, uint(7), *incident.ModeratorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignModeratorAlreadyAssigned(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "PENDING", "INITIAL", 7, nil, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(8, "mod2@safetrade.app", "moderator", true))
	mock.ExpectBegin()
	// Conditional update misses: another moderator already holds the incident.
	mock.ExpectExec(`UPDATE "incidents" SET (.+) WHERE id = (.+) AND moderator_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := svc.AssignModerator(context.Background(), 1, 8)

	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignModeratorSelfReviewBlocked(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "APPEALED", "APPEAL", 7, nil, "mislabeled"))
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(7, "mod@safetrade.app", "moderator", true))

	_, err := svc.AssignModerator(context.Background(), 1, 7)

	assert.ErrorIs(t, err, ErrSelfReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignModeratorAppeal(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "APPEALED", "APPEAL", 7, nil, "mislabeled"))
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(8, "mod2@safetrade.app", "moderator", true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "incidents" SET (.+) WHERE id = (.+) AND appeal_moderator_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "APPEALED", "APPEAL", 7, 8, "mislabeled"))

	incident, err := svc.AssignModerator(context.Background(), 1, 8)

	require.NoError(t, err)
	require.NotNil(t, incident.AppealModeratorID)
	assert.Equal(t, uint(8), *incident.AppealModeratorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignModeratorAppealAlreadyAssigned(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "APPEALED", "APPEAL", 7, 8, "mislabeled"))
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(9, "mod3@safetrade.app", "moderator", true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "incidents" SET (.+) WHERE id = (.+) AND appeal_moderator_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := svc.AssignModerator(context.Background(), 1, 9)

	assert.ErrorIs(t, err, ErrAppealAlreadyAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignModeratorWrongState(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "ACCEPTED", "INITIAL", 7, nil, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "users" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(8, "mod2@safetrade.app", "moderator", true))

	_, err := svc.AssignModerator(context.Background(), 1, 8)

	assert.ErrorIs(t, err, ErrInvalidAssignmentState)
}

func TestAssignModeratorIncidentNotFound(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.AssignModerator(context.Background(), 404, 7)

	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestResolveIncidentFirstStrikeSuspends(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "PENDING", "INITIAL", 7, nil, nil))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET (.+)`).
		WithArgs("SUSPENDED", sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "incidents" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	incident, err := svc.ResolveIncident(context.Background(), 1, models.IncidentStatusAccepted)

	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusAccepted, incident.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveIncidentAppealAcceptanceBans(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "APPEALED", "APPEAL", 7, 8, "mislabeled"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET (.+)`).
		WithArgs("BANNED", sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "incidents" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	incident, err := svc.ResolveIncident(context.Background(), 1, models.IncidentStatusAccepted)

	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusAccepted, incident.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveIncidentRejectionRestores(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "APPEALED", "APPEAL", 7, 8, "mislabeled"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET (.+)`).
		WithArgs("ACTIVE", sqlmock.AnyArg(), 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "incidents" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	incident, err := svc.ResolveIncident(context.Background(), 1, models.IncidentStatusRejected)

	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusRejected, incident.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveIncidentInvalidStatus(t *testing.T) {
	db, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	_, err := svc.ResolveIncident(context.Background(), 1, models.IncidentStatusAppealed)

	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestManageAppeal(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "ACCEPTED", "INITIAL", 7, nil, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "status"}).
			AddRow(42, 5, "old couch", "SUSPENDED"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "incidents" SET (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	incident, err := svc.ManageAppeal(context.Background(), 1, 5, "mislabeled")

	require.NoError(t, err)
	assert.Equal(t, models.IncidentStatusAppealed, incident.Status)
	assert.Equal(t, models.IncidentPhaseAppeal, incident.Phase)
	require.NotNil(t, incident.AppealReason)
	assert.Equal(t, "mislabeled", *incident.AppealReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManageAppealProductNotSuspended(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "REJECTED", "INITIAL", 7, nil, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "status"}).
			AddRow(42, 5, "old couch", "ACTIVE"))

	_, err := svc.ManageAppeal(context.Background(), 1, 5, "mislabeled")

	assert.ErrorIs(t, err, ErrProductNotSuspended)
}

func TestManageAppealAlreadyFiled(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "APPEALED", "APPEAL", 7, nil, "first appeal"))
	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "status"}).
			AddRow(42, 5, "old couch", "SUSPENDED"))

	_, err := svc.ManageAppeal(context.Background(), 1, 5, "second try")

	assert.ErrorIs(t, err, ErrAppealAlreadyFiled)
}

func TestManageAppealNotOwner(t *testing.T) {
	db, mock, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "incidents" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows(incidentColumns()).
			AddRow(1, 42, "FRAUD", nil, "5", "ACCEPTED", "INITIAL", 7, nil, nil))
	mock.ExpectQuery(`SELECT (.+) FROM "products" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "status"}).
			AddRow(42, 5, "old couch", "SUSPENDED"))

	_, err := svc.ManageAppeal(context.Background(), 1, 99, "not mine")

	assert.ErrorIs(t, err, ErrNotProductOwner)
}

func TestUpdateIncidentStatusInvalid(t *testing.T) {
	db, _, cleanup := testutils.SetupTestDB(t)
	defer cleanup()

	svc := NewModerationService(db, nil)

	_, err := svc.UpdateIncidentStatus(context.Background(), 1, "NONSENSE")

	assert.ErrorIs(t, err, ErrInvalidIncidentStatus)
}
