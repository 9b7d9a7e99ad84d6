package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatecrm/internal/models"
	"estatecrm/internal/repositories"
)

func newWhatsAppService(t *testing.T) (*WhatsAppService, sqlmock.Sqlmock) {
	t.Helper()
	db, mockDB, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWhatsAppService(repositories.NewLeadRepository(db), repositories.NewTeamRepository(db)), mockDB
}

func whatsappLeadRow(lead models.Lead) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "phone", "email", "city", "address", "status", "source",
		"assigned_to_id", "interested_properties", "notes", "created_at", "updated_at",
	}).AddRow(lead.ID, lead.Name, lead.Phone, lead.Email, lead.City, lead.Address,
		lead.Status, lead.Source, lead.AssignedToID, "[]", lead.Notes, time.Now(), time.Now())
}

func TestWelcomeLinkStripsPhoneFormatting(t *testing.T) {
	svc, mockDB := newWhatsAppService(t)

	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).
		WithArgs(1).
		WillReturnRows(whatsappLeadRow(models.Lead{ID: 1, Name: "Aidos", Phone: "+7 (700) 111-22-33"}))

	link, err := svc.WelcomeLink(1)
	require.NoError(t, err)
	assert.Contains(t, link.WhatsAppURL, "https://wa.me/77001112233?text=")
	assert.Contains(t, link.WhatsAppURL, "Hello+Aidos%21")
	assert.Equal(t, "our team", link.Agent, "unassigned lead greets from the generic team")
}

func TestWelcomeLinkUsesAssignedAgent(t *testing.T) {
	svc, mockDB := newWhatsAppService(t)

	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).
		WithArgs(1).
		WillReturnRows(whatsappLeadRow(models.Lead{ID: 1, Name: "Aidos", Phone: "+77001112233", AssignedToID: 5}))
	mockDB.ExpectQuery(`SELECT .+ FROM team_members WHERE id=\$1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "phone", "role", "status", "joined_at",
		}).AddRow(5, "Dana", "dana@agency.kz", "+7701", "agent", models.MemberStatusActive, time.Now()))

	link, err := svc.WelcomeLink(1)
	require.NoError(t, err)
	assert.Equal(t, "Dana", link.Agent)
	assert.Equal(t, "Aidos", link.LeadName)
}

func TestWelcomeLinkNoPhone(t *testing.T) {
	svc, mockDB := newWhatsAppService(t)

	mockDB.ExpectQuery(`SELECT .+ FROM leads WHERE id=\$1`).
		WithArgs(1).
		WillReturnRows(whatsappLeadRow(models.Lead{ID: 1, Name: "Aidos", Phone: "---"}))

	_, err := svc.WelcomeLink(1)
	assert.Error(t, err)
}
