package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/Kyz7/dashboard/internal/cache"
	"github.com/Kyz7/dashboard/internal/database"
	"github.com/Kyz7/dashboard/internal/models"
	"github.com/Kyz7/dashboard/internal/role"
	"github.com/Kyz7/dashboard/internal/server"
	"github.com/Kyz7/dashboard/internal/storage"
	"github.com/Kyz7/dashboard/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB opens a migrated in-memory database with foreign keys enforced,
// so ON DELETE rules behave as they do on Postgres. A single connection
// keeps every query on the same in-memory schema.
func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(database.Models()...)
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

// SeededDB is TestDB with the default roles in place.
func SeededDB(t *testing.T) *gorm.DB {
	db := TestDB(t)
	require.NoError(t, role.SeedDefaultRoles(context.Background(), db), "Failed to seed roles")
	return db
}

type TestApp struct {
	App   *fiber.App
	DB    *gorm.DB
	Cache *cache.MemoryCache
}

func SetupTestApp(t *testing.T) *TestApp {
	db := SeededDB(t)

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err, "Failed to initialize storage")

	mem := cache.NewMemoryCache()
	app := server.New(server.Deps{
		DB:         db,
		Cache:      mem,
		CacheTTL:   time.Minute,
		Storage:    store,
		LoginLimit: 100,
	})
	return &TestApp{App: app, DB: db, Cache: mem}
}

func CreateTestUser(t *testing.T, db *gorm.DB, email, password, roleName string) *models.User {
	hashedPassword, err := utils.HashPassword(password)
	require.NoError(t, err)

	var r models.Role
	if err := db.Where("name = ?", roleName).First(&r).Error; err != nil {
		t.Fatalf("Failed to find role '%s': %v. Make sure the roles were seeded.", roleName, err)
	}

	user := &models.User{
		Name:     "Test User",
		Email:    email,
		Password: hashedPassword,
		RoleID:   &r.ID,
	}
	require.NoError(t, db.Create(user).Error, "Failed to create test user")

	db.Preload("Role").First(user, user.ID)
	if user.Role == nil {
		t.Fatal("Role not loaded for user")
	}

	return user
}

func GetAuthToken(t *testing.T, user *models.User) string {
	var roleID uint
	var roleName string
	if user.Role != nil {
		roleID = user.Role.ID
		roleName = user.Role.Name
	}
	token, err := utils.GenerateJWT(user.ID, roleID, roleName)
	require.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	return send(app, req, token)
}

// MakeRequestWithHeader sends a bodiless request with one raw header.
func MakeRequestWithHeader(app *fiber.App, method, url, key, value string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, url, nil)
	if value != "" {
		req.Header.Set(key, value)
	}
	return send(app, req, "")
}

// MakeMultipartRequestWithFile posts a form with one file part per entry
// in files, each declared with the given content type.
func MakeMultipartRequestWithFile(app *fiber.App, method, url string, fields map[string]string, files map[string][]byte, contentType, token string) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, val := range fields {
		writer.WriteField(key, val)
	}

	for fieldName, fileContent := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fieldName+`.png"`)
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, err
		}
		part.Write(fileContent)
	}

	formType := writer.FormDataContentType()
	writer.Close()

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", formType)

	return send(app, req, token)
}

func send(app *fiber.App, req *http.Request, token string) (*httptest.ResponseRecorder, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode
	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.Unmarshal(resp.Body.Bytes(), v)
	if err != nil {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorDetail    `json:"error"`
	Meta    *Meta           `json:"meta"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// DecodeData parses the envelope and unmarshals its data field into v.
func DecodeData(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) StandardResponse {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	if v != nil && len(result.Data) > 0 {
		require.NoError(t, json.Unmarshal(result.Data, v), "Failed to parse data: %s", string(result.Data))
	}
	return result
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response: %s", resp.Body.String())
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	if assert.NotNil(t, result.Error, "Expected error object") {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
}
