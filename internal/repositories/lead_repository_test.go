package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecrm/internal/models"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func leadRows(leads ...models.Lead) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "name", "phone", "email", "city", "address", "status", "source",
		"assigned_to_id", "interested_properties", "notes", "created_at", "updated_at",
	})
	for _, l := range leads {
		rows.AddRow(l.ID, l.Name, l.Phone, l.Email, l.City, l.Address, l.Status, l.Source,
			l.AssignedToID, encodeIDs(l.InterestedProperties), l.Notes, l.CreatedAt, l.UpdatedAt)
	}
	return rows
}

func TestLeadRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	lead := &models.Lead{
		Name: "Aidos", Phone: "+77001112233", City: "Almaty",
		Status: models.LeadStatusNew, Source: models.LeadSourceWebsite,
		InterestedProperties: []int{3, 7},
		CreatedAt:            time.Now(), UpdatedAt: time.Now(),
	}

	mock.ExpectQuery(`INSERT INTO leads`).
		WithArgs(lead.Name, lead.Phone, lead.Email, lead.City, lead.Address,
			lead.Status, lead.Source, lead.AssignedToID, "[3,7]", lead.Notes,
			lead.CreatedAt, lead.UpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(14))

	require.NoError(t, repo.Create(lead))
	assert.Equal(t, 14, lead.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).
		WithArgs(14).
		WillReturnRows(leadRows(models.Lead{
			ID: 14, Name: "Aidos", Phone: "+77001112233", City: "Almaty",
			Status: models.LeadStatusNew, Source: models.LeadSourceWebsite,
			InterestedProperties: []int{3, 7}, CreatedAt: now, UpdatedAt: now,
		}))

	lead, err := repo.GetByID(14)
	require.NoError(t, err)
	assert.Equal(t, "Aidos", lead.Name)
	// json-строка из БД разворачивается обратно в список id
	assert.Equal(t, []int{3, 7}, lead.InterestedProperties)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLeadRepositoryBadInterestedPayload(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "name", "phone", "email", "city", "address", "status", "source",
		"assigned_to_id", "interested_properties", "notes", "created_at", "updated_at",
	}).AddRow(1, "X", "+7", "", "", "", "new", "website", 0, "not-json", "", time.Now(), time.Now())

	mock.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).WithArgs(1).WillReturnRows(rows)

	lead, err := repo.GetByID(1)
	require.NoError(t, err)
	// битая строка не валит запись, список просто пустой
	assert.Empty(t, lead.InterestedProperties)
}

func TestLeadRepositoryUpdateInterested(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	mock.ExpectQuery(`UPDATE leads SET interested_properties=\$1, updated_at=NOW\(\) WHERE id=\$2 RETURNING interested_properties`).
		WithArgs("[3,7,10]", 14).
		WillReturnRows(sqlmock.NewRows([]string{"interested_properties"}).AddRow("[3,7,10]"))

	raw, err := repo.UpdateInterested(14, []int{3, 7, 10})
	require.NoError(t, err)
	assert.Equal(t, "[3,7,10]", raw)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM leads ORDER BY id`).
		WillReturnRows(leadRows(
			models.Lead{ID: 1, Name: "A", Status: "new", CreatedAt: now, UpdatedAt: now},
			models.Lead{ID: 2, Name: "B", Status: "contacted", CreatedAt: now, UpdatedAt: now},
		))

	leads, err := repo.List()
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, 1, leads[0].ID)
	assert.Equal(t, 2, leads[1].ID)
}

func TestLeadRepositoryListByAssignee(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM leads WHERE assigned_to_id=\$1 ORDER BY id`).
		WithArgs(5).
		WillReturnRows(leadRows(models.Lead{ID: 3, Name: "C", AssignedToID: 5, CreatedAt: now, UpdatedAt: now}))

	leads, err := repo.ListByAssignee(5)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 5, leads[0].AssignedToID)
}

func TestLeadRepositoryUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	mock.ExpectExec(`UPDATE leads SET status=\$1, updated_at=NOW\(\) WHERE id=\$2`).
		WithArgs(models.LeadStatusContacted, 14).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(14, models.LeadStatusContacted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLeadRepository(db)

	mock.ExpectExec(`DELETE FROM leads WHERE id=\$1`).
		WithArgs(14).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(14))
	assert.NoError(t, mock.ExpectationsWereMet())
}
