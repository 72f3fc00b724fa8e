package user_test

import (
	"net/http"
	"testing"

	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/testutils"
	"github.com/Kyz7/dashboard/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, ta.DB, "admin@example.com", "password123", "admin")
	token := testutils.GetAuthToken(t, admin)

	var editor models.Role
	require.NoError(t, ta.DB.Where("name = ?", "editor").First(&editor).Error)
	team := models.Team{Name: "Newsroom"}
	require.NoError(t, ta.DB.Create(&team).Error)

	t.Run("with role and team", func(t *testing.T) {
		resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/users", map[string]any{
			"name":     "New Editor",
			"email":    "  New.Editor@Example.com ",
			"password": "password123",
			"role_id":  editor.ID,
			"team_id":  team.ID,
		}, token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.Code)
		testutils.AssertSuccess(t, resp)

		var created models.User
		testutils.DecodeData(t, resp, &created)
		assert.Equal(t, "new.editor@example.com", created.Email)
		require.NotNil(t, created.Role)
		assert.Equal(t, "editor", created.Role.Name)

		var stored models.User
		require.NoError(t, ta.DB.First(&stored, created.ID).Error)
		assert.True(t, utils.CheckPasswordHash("password123", stored.Password))

		var member models.TeamMember
		require.NoError(t, ta.DB.Where("user_id = ?", created.ID).First(&member).Error)
		assert.Equal(t, team.ID, member.TeamID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/users", map[string]any{
			"name":     "Again",
			"email":    "new.editor@example.com",
			"password": "password123",
		}, token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.Code)
		testutils.AssertError(t, resp, "CONFLICT")
	})

	t.Run("unknown role", func(t *testing.T) {
		resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/users", map[string]any{
			"name":     "Lost",
			"email":    "lost@example.com",
			"password": "password123",
			"role_id":  9999,
		}, token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("unknown team rolls back the user", func(t *testing.T) {
		resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/users", map[string]any{
			"name":     "Teamless",
			"email":    "teamless@example.com",
			"password": "password123",
			"team_id":  9999,
		}, token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Code)

		var count int64
		ta.DB.Model(&models.User{}).Where("email = ?", "teamless@example.com").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("validation", func(t *testing.T) {
		resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/users", map[string]any{
			"name":     "Short",
			"email":    "not-an-email",
			"password": "123",
		}, token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		details, ok := result.Error.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "email")
		assert.Contains(t, details, "password")
	})

	t.Run("non admin", func(t *testing.T) {
		author := testutils.CreateTestUser(t, ta.DB, "author@example.com", "password123", "author")
		resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/users", map[string]any{
			"name":     "Sneaky",
			"email":    "sneaky@example.com",
			"password": "password123",
		}, testutils.GetAuthToken(t, author))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestListUsersHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, ta.DB, "admin@example.com", "password123", "admin")
	testutils.CreateTestUser(t, ta.DB, "member@example.com", "password123", "member")

	resp, err := testutils.MakeRequest(ta.App, http.MethodGet, "/users", nil, testutils.GetAuthToken(t, admin))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)

	var users []models.User
	testutils.DecodeData(t, resp, &users)
	require.Len(t, users, 2)
	assert.Equal(t, "admin@example.com", users[0].Email)
	assert.Equal(t, "member", users[1].Role.Name)
	assert.Empty(t, users[0].Password)
}
