package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/axellelanca/shortly/internal/cache"
	"github.com/axellelanca/shortly/internal/models"
	"github.com/axellelanca/shortly/internal/repository"
	"github.com/axellelanca/shortly/internal/services"
)

const testSecret = "test-secret"

// mapCache is a minimal in-memory Cache for the HTTP tests.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (m *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (m *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *mapCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

type testEnv struct {
	router      *gin.Engine
	db          *gorm.DB
	clickEvents chan models.ClickEvent
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Link{},
		&models.ArchivedLink{},
		&models.Project{},
		&models.Click{},
	))

	linkRepo := repository.NewLinkRepository(db)
	linkService := services.NewLinkService(linkRepo, newMapCache(), time.Hour)
	authService := services.NewAuthService(repository.NewUserRepository(db), testSecret, time.Hour)
	projectService := services.NewProjectService(repository.NewProjectRepository(db), linkRepo)

	clickEvents := make(chan models.ClickEvent, 16)

	router := gin.New()
	SetupRoutes(router, NewHandlers(linkService, authService, projectService, clickEvents, testSecret))

	return &testEnv{router: router, db: db, clickEvents: clickEvents}
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register",
		fmt.Sprintf(`{"email": %q, "password": "hunter2"}`, email), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestShortenResolveConflictScenario(t *testing.T) {
	env := newTestEnv(t)

	expiry := time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)
	body := fmt.Sprintf(`{"original_url": "https://example.com/", "custom_alias": "testalias", "expires_at": %q}`, expiry)

	w := env.do(t, http.MethodPost, "/links/shorten", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created CreateLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "testalias", created.ShortURL)

	// Immediate resolution returns the redirect payload.
	w = env.do(t, http.MethodGet, "/links/testalias", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"Redirect": "https://example.com/"}`, w.Body.String())

	// Repeated creation with the same alias conflicts.
	w = env.do(t, http.MethodPost, "/links/shorten", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestShortenValidation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "not a url"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	w = env.do(t, http.MethodPost, "/links/shorten",
		fmt.Sprintf(`{"original_url": "https://example.com", "expires_at": %q}`, past), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveUnknownCode(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/links/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveExpiredReturnsGone(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.db.Create(&models.Link{
		OriginalURL: "https://example.com",
		ShortCode:   "oldcode",
		ExpiresAt:   func() *time.Time { t := time.Now().UTC().Add(-time.Hour); return &t }(),
		IsActive:    true,
	}).Error)

	w := env.do(t, http.MethodGet, "/links/oldcode", "", "")
	assert.Equal(t, http.StatusGone, w.Code)

	// The destructive read archived the link; the second attempt is a 404.
	w = env.do(t, http.MethodGet, "/links/oldcode", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveQueuesClickEvent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "https://example.com", "custom_alias": "clicky"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/links/clicky", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case event := <-env.clickEvents:
		assert.NotZero(t, event.LinkID)
	default:
		t.Fatal("expected a click event on the store-backed resolution")
	}

	// A cache-hit resolution skips stats and click recording.
	w = env.do(t, http.MethodGet, "/links/clicky", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	select {
	case <-env.clickEvents:
		t.Fatal("cache hit must not queue a click event")
	default:
	}
}

func TestUpdateAndDeleteAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ownerToken := env.register(t, "owner@example.com")
	otherToken := env.register(t, "other@example.com")

	w := env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "https://example.com", "custom_alias": "mine"}`, ownerToken)
	require.Equal(t, http.StatusOK, w.Code)

	// No credential at all.
	w = env.do(t, http.MethodPut, "/links/mine", `{"new_url": "https://new.example.com"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong principal.
	w = env.do(t, http.MethodPut, "/links/mine", `{"new_url": "https://new.example.com"}`, otherToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Owner succeeds, and the change is visible immediately.
	w = env.do(t, http.MethodPut, "/links/mine", `{"new_url": "https://new.example.com"}`, ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/links/mine", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"Redirect": "https://new.example.com"}`, w.Body.String())

	// Unknown code on delete.
	w = env.do(t, http.MethodDelete, "/links/nope", "", ownerToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/links/mine", "", ownerToken)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/links/mine", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnonymousLinkIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "user@example.com")

	w := env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "https://example.com", "custom_alias": "anon"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPut, "/links/anon", `{"new_url": "https://new.example.com"}`, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/links/anon", "", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/links/missing/stats", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "https://example.com", "custom_alias": "stat"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/links/stat", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/links/stat/stats", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.LinkStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "https://example.com", stats.OriginalURL)
	assert.Equal(t, 1, stats.Clicks)
	assert.NotNil(t, stats.LastAccessed)
}

func TestSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/links/search/", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/links/search/?original_url=https%3A%2F%2Fnothing.example.com", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "https://example.com", "custom_alias": "found"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/links/search/?original_url=https%3A%2F%2Fexample.com", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var results []services.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "found", results[0].ShortCode)
}

func TestArchiveEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "user@example.com")

	w := env.do(t, http.MethodGet, "/links/archive/", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Expire one of the user's links through a resolution.
	w = env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "https://example.com", "custom_alias": "dying"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, env.db.Model(&models.Link{}).
		Where("short_code = ?", "dying").
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error)
	w = env.do(t, http.MethodGet, "/links/dying", "", "")
	require.Equal(t, http.StatusGone, w.Code)

	w = env.do(t, http.MethodGet, "/links/archive/", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var archived []ArchivedLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &archived))
	require.Len(t, archived, 1)
	assert.Equal(t, "dying", archived[0].ShortCode)
	assert.NotEmpty(t, archived[0].ArchivedAt)
}

func TestProjectEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "user@example.com")
	otherToken := env.register(t, "other@example.com")

	// Auth is required across the board.
	w := env.do(t, http.MethodPost, "/projects/", `{"name": "marketing"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/projects/", `{"name": "marketing"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var project ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))

	w = env.do(t, http.MethodPost, "/projects/", `{"name": "marketing"}`, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Another user can't see it.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/projects/%d", project.ID), "", otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Associate an owned link, then reject the duplicate.
	w = env.do(t, http.MethodPost, "/links/shorten", `{"original_url": "https://example.com", "custom_alias": "mine"}`, token)
	require.Equal(t, http.StatusOK, w.Code)

	path := fmt.Sprintf("/projects/%d/links/mine", project.ID)
	w = env.do(t, http.MethodPost, path, "", token)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, path, "", token)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/projects/%d", project.ID), "", token)
	require.Equal(t, http.StatusOK, w.Code)
	var detail ProjectWithLinksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Len(t, detail.Links, 1)
	assert.Equal(t, "mine", detail.Links[0].ShortURL)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestLoginEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "user@example.com")

	w := env.do(t, http.MethodPost, "/auth/login", `{"email": "user@example.com", "password": "hunter2"}`, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", `{"email": "user@example.com", "password": "wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/auth/register", `{"email": "user@example.com", "password": "hunter2"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
