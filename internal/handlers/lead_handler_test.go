package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecrm/internal/authz"
	"estatecrm/internal/models"
	"estatecrm/internal/repositories"
	"estatecrm/internal/services"
)

func newLeadRouter(t *testing.T, role string, memberID int) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mockDB, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := services.NewLeadService(
		repositories.NewLeadRepository(db),
		repositories.NewPropertyRepository(db),
		repositories.NewTeamRepository(db),
		nil,
		services.NewTelegramNotifier("", 0),
	)
	h := NewLeadHandler(svc)

	r := gin.New()
	// контекст как после AuthMiddleware
	r.Use(func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Set("role", role)
		c.Set("member_id", memberID)
		c.Next()
	})
	r.GET("/leads", h.List)
	r.PUT("/leads/:id", h.Update)
	return r, mockDB
}

func handlerLeadRow(lead models.Lead) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "phone", "email", "city", "address", "status", "source",
		"assigned_to_id", "interested_properties", "notes", "created_at", "updated_at",
	}).AddRow(lead.ID, lead.Name, lead.Phone, lead.Email, lead.City, lead.Address,
		lead.Status, lead.Source, lead.AssignedToID, "[]", lead.Notes, time.Now(), time.Now())
}

func TestLeadListAgentScopedToOwn(t *testing.T) {
	r, mockDB := newLeadRouter(t, authz.RoleAgent, 5)

	// скоуп по клейму, query-параметр чужого агента игнорируется
	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE assigned_to_id=\$1 ORDER BY id`).
		WithArgs(5).
		WillReturnRows(handlerLeadRow(models.Lead{ID: 3, Name: "Mine", AssignedToID: 5, Status: "new"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads?assigned_to=99", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Mine"`)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestLeadListElevatedSeesAll(t *testing.T) {
	r, mockDB := newLeadRouter(t, authz.RoleManager, 0)

	mockDB.ExpectQuery(`SELECT .+ FROM leads ORDER BY id`).
		WillReturnRows(handlerLeadRow(models.Lead{ID: 1, Name: "Any", AssignedToID: 9, Status: "new"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestLeadUpdateAgentForeignLeadForbidden(t *testing.T) {
	r, mockDB := newLeadRouter(t, authz.RoleAgent, 5)

	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).
		WithArgs(1).
		WillReturnRows(handlerLeadRow(models.Lead{ID: 1, Name: "Foreign", AssignedToID: 9, Status: "new"}))

	req := httptest.NewRequest(http.MethodPut, "/leads/1", strings.NewReader(`{"city":"Astana"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// чужой лид: 403 и никакого UPDATE
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestLeadUpdateAgentOwnLeadAllowed(t *testing.T) {
	r, mockDB := newLeadRouter(t, authz.RoleAgent, 5)

	own := models.Lead{ID: 1, Name: "Mine", Phone: "+7700", AssignedToID: 5, Status: "new", Source: "website"}
	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).WithArgs(1).WillReturnRows(handlerLeadRow(own))
	mockDB.ExpectExec(`UPDATE leads`).WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).WithArgs(1).WillReturnRows(handlerLeadRow(own))

	body := `{"name":"Mine","phone":"+7700","city":"Astana","status":"new","source":"website","assigned_to_id":5}`
	req := httptest.NewRequest(http.MethodPut, "/leads/1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestLeadUpdateNotFound(t *testing.T) {
	r, mockDB := newLeadRouter(t, authz.RoleManager, 0)

	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodPut, "/leads/404", strings.NewReader(`{"city":"Astana"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
