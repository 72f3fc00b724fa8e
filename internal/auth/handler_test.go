package auth_test

import (
	"net/http"
	"testing"

	"github.com/Kyz7/dashboard/internal/auth"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/testutils"
	"github.com/Kyz7/dashboard/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	user := testutils.CreateTestUser(t, ta.DB, "editor@example.com", "password123", "editor")

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
		wantCode   string
	}{
		{"wrong password", map[string]string{"email": "editor@example.com", "password": "nope"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown email", map[string]string{"email": "ghost@example.com", "password": "password123"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"missing fields", map[string]string{"email": "editor@example.com"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/auth/login", tt.body, "")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Code)
			testutils.AssertError(t, resp, tt.wantCode)
		})
	}

	t.Run("success", func(t *testing.T) {
		resp, err := testutils.MakeRequest(ta.App, http.MethodPost, "/auth/login", map[string]string{
			"email":    "editor@example.com",
			"password": "password123",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Code)

		var session auth.Session
		testutils.DecodeData(t, resp, &session)
		assert.NotEmpty(t, session.AccessToken)
		assert.Equal(t, int(utils.AccessTokenTTL.Seconds()), session.ExpiresIn)
		require.NotNil(t, session.User)
		assert.Equal(t, user.ID, session.User.ID)

		claims, err := utils.ParseClaims(session.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "editor", claims.Role)
		assert.Equal(t, *user.RoleID, claims.RoleID)

		var log models.ActivityLog
		require.NoError(t, ta.DB.Where("action = ?", models.ActivitySignIn).First(&log).Error)
		assert.Equal(t, "user", log.EntityType)
		assert.Equal(t, user.ID, *log.UserID)
	})
}

func TestJWTProtected(t *testing.T) {
	ta := testutils.SetupTestApp(t)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing", "", "UNAUTHORIZED"},
		{"not bearer", "Token abc", "INVALID_TOKEN_FORMAT"},
		{"garbage", "Bearer abc.def.ghi", "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := testutils.MakeRequestWithHeader(ta.App, http.MethodGet, "/auth/me/permissions", "Authorization", tt.header)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			testutils.AssertError(t, resp, tt.wantCode)
		})
	}
}

func TestMyPermissionsHandler(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	editor := testutils.CreateTestUser(t, ta.DB, "editor@example.com", "password123", "editor")

	resp, err := testutils.MakeRequest(ta.App, http.MethodGet, "/auth/me/permissions", nil, testutils.GetAuthToken(t, editor))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Code)

	var view struct {
		Permissions []models.Permission        `json:"permissions"`
		Can         map[string]map[string]bool `json:"can"`
	}
	testutils.DecodeData(t, resp, &view)
	assert.Len(t, view.Permissions, 2)
	assert.Equal(t, map[string]bool{"create": false, "read": true, "update": true, "delete": false}, view.Can[models.EntityBlogPost])
	assert.Equal(t, map[string]bool{"create": false, "read": true, "update": false, "delete": false}, view.Can[models.EntitySiteSettings])
}
