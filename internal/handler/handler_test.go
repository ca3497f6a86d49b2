package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/config"
	"github.com/iliyamo/food-journal-api/internal/handler"
	"github.com/iliyamo/food-journal-api/internal/middleware"
	"github.com/iliyamo/food-journal-api/internal/model"
	"github.com/iliyamo/food-journal-api/internal/repository"
	"github.com/iliyamo/food-journal-api/internal/router"
	"github.com/iliyamo/food-journal-api/internal/service"
	"github.com/iliyamo/food-journal-api/internal/utils"
)

// ----- in-memory stores -----

type users struct {
	mu   sync.Mutex
	rows []model.User
}

func (s *users) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = uint64(len(s.rows) + 1)
	s.rows = append(s.rows, *u)
	return nil
}

func (s *users) exists(match func(model.User) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.rows {
		if match(u) {
			return true
		}
	}
	return false
}

func (s *users) EmailExists(_ context.Context, email string, except uint64) (bool, error) {
	return s.exists(func(u model.User) bool { return u.Email == email && u.ID != except }), nil
}

func (s *users) UsernameExists(_ context.Context, name string, except uint64) (bool, error) {
	return s.exists(func(u model.User) bool { return u.Username == name && u.ID != except }), nil
}

func (s *users) FindByLogin(_ context.Context, login string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.rows {
		if u.Username == login || u.Email == login {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || int(id) > len(s.rows) {
		return nil, repository.ErrNotFound
	}
	cp := s.rows[id-1]
	return &cp, nil
}

func (s *users) Update(_ context.Context, id uint64, upd model.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || int(id) > len(s.rows) {
		return repository.ErrNotFound
	}
	if upd.FirstName != nil {
		s.rows[id-1].FirstName = *upd.FirstName
	}
	return nil
}

type blacklist struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func (b *blacklist) Insert(_ context.Context, t *model.RevokedToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[t.AccessToken] = true
	return nil
}

func (b *blacklist) Exists(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens[token], nil
}

func (b *blacklist) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type posts struct {
	mu    sync.Mutex
	next  uint64
	rows  map[uint64]model.PostReview
	users *users
}

func (p *posts) Create(_ context.Context, r *model.PostReview) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	r.ID = p.next
	p.rows[r.ID] = *r
	return nil
}

func (p *posts) check(id, owner uint64) error {
	r, ok := p.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.UserID != owner {
		return repository.ErrForbidden
	}
	return nil
}

func (p *posts) UpdateByIDAndOwner(_ context.Context, r *model.PostReview) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(r.ID, r.UserID); err != nil {
		return err
	}
	p.rows[r.ID] = *r
	return nil
}

func (p *posts) DeleteByIDAndOwner(_ context.Context, id, owner uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(id, owner); err != nil {
		return err
	}
	delete(p.rows, id)
	return nil
}

func (p *posts) List(ctx context.Context, limit int) ([]model.PostView, error) {
	return p.ListByUser(ctx, 0, limit)
}

func (p *posts) ListByUser(_ context.Context, userID uint64, limit int) ([]model.PostView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []model.PostView{}
	for id := uint64(1); id <= p.next && len(out) < limit; id++ {
		r, ok := p.rows[id]
		if !ok || (userID != 0 && r.UserID != userID) {
			continue
		}
		u, _ := p.users.GetByID(context.Background(), r.UserID)
		out = append(out, model.PostView{PostReview: r, Username: u.Username})
	}
	return out, nil
}

// ----- harness -----

type app struct {
	e              *echo.Echo
	changes        int
	profileChanges int
}

func newApp(t *testing.T) *app {
	t.Helper()
	codec, err := utils.NewTokenCodec(&config.Config{JWTSecret: "handler-secret", JWTAlgorithm: "HS256"})
	require.NoError(t, err)

	us := &users{}
	registry := service.NewRevocationRegistry(&blacklist{tokens: map[string]bool{}})
	accounts := service.NewAccountService(us, plain{}, codec, registry, time.Hour)
	postSvc := service.NewPostReviewService(&posts{rows: map[uint64]model.PostReview{}, users: us}, nil, zap.NewNop())

	a := &app{e: echo.New()}
	a.e.Validator = utils.RequestValidator{}
	ph := handler.NewPostReviewHandler(postSvc, zap.NewNop(), time.Second)
	ph.OnChange = func(context.Context) { a.changes++ }

	requireAuth := middleware.BearerAuth(service.NewSessionValidator(registry, codec), time.Second)
	passThrough := middleware.NewRedisCache(config.CacheConfig{}, nil)
	api := a.e.Group(router.APIPrefix)
	router.RegisterRoutes(a.e, "test")
	ah := handler.NewAuthHandler(accounts, zap.NewNop(), time.Second)
	ah.OnProfileChange = func(context.Context) { a.profileChanges++ }
	router.RegisterAuth(api, ah, requireAuth)
	router.RegisterPostReview(api, ph, requireAuth, passThrough)
	return a
}

type plain struct{}

func (plain) Hash(s string) (string, error) { return "h:" + s, nil }
func (plain) Verify(s, digest string) bool { return digest == "h:"+s }

func (a *app) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

const aliceJSON = `{"first_name":"Alice","last_name":"L","username":"alice","password":"pw","email":"alice@example.com"}`

func (a *app) registerAndLogin(t *testing.T, body, username, password string) string {
	t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/auth/create_user", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decodeMap(t, rec)
	assert.Equal(t, "bearer", m["token_type"])
	return m["access_token"].(string)
}

// ----- tests -----

func TestRootAndHealth(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"Environ": "test", "Project": "Food Journal"}, decodeMap(t, rec))

	rec = a.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegister_EchoesUserWithoutPassword(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/api/v1/auth/create_user", "", aliceJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	user := decodeMap(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")

	rec = a.do(http.MethodPost, "/api/v1/auth/create_user", "", aliceJSON)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email alice@example.com already exists", decodeMap(t, rec)["detail"])
}

func TestRegister_SchemaFailure(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodPost, "/api/v1/auth/create_user", "", `{"username":"alice"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	a := newApp(t)
	a.registerAndLogin(t, aliceJSON, "alice", "pw")

	rec := a.do(http.MethodPost, "/api/v1/auth/login", "", `{"username":"alice","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	assert.Equal(t, service.MsgWrongPassword, decodeMap(t, rec)["detail"])
}

func TestProtectedRoutes_NeedBearer(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodGet, "/api/v1/auth/get_user", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authenticated", decodeMap(t, rec)["detail"])

	rec = a.do(http.MethodGet, "/api/v1/auth/get_user", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.MsgInvalidCredentials, decodeMap(t, rec)["detail"])
}

func TestProfileAndLogout(t *testing.T) {
	a := newApp(t)
	token := a.registerAndLogin(t, aliceJSON, "alice@example.com", "pw")

	rec := a.do(http.MethodGet, "/api/v1/auth/get_user", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeMap(t, rec)
	assert.Equal(t, float64(1), profile["id"])
	assert.Equal(t, "alice@example.com", profile["email"])
	assert.NotContains(t, profile, "password")

	rec = a.do(http.MethodPatch, "/api/v1/auth/update_user", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgNoFieldsToUpdate, decodeMap(t, rec)["detail"])

	assert.Equal(t, 0, a.profileChanges)

	rec = a.do(http.MethodPatch, "/api/v1/auth/update_user", token, `{"first_name":"Alicia"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User was updated", decodeMap(t, rec)["message"])
	assert.Equal(t, 1, a.profileChanges)

	rec = a.do(http.MethodPost, "/api/v1/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Access token "+token+" added to blacklist", decodeMap(t, rec)["message"])

	rec = a.do(http.MethodGet, "/api/v1/auth/get_user", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.MsgTokenRevoked, decodeMap(t, rec)["detail"])
}

func TestPostReviewFlow(t *testing.T) {
	a := newApp(t)
	alice := a.registerAndLogin(t, aliceJSON, "alice", "pw")
	bob := a.registerAndLogin(t,
		`{"first_name":"Bob","last_name":"B","username":"bob","password":"pw","email":"bob@example.com"}`, "bob", "pw")

	body := `{"food_name":"ramen","restaurant_name":"Ichiran","rating":4.5,"review":"rich"}`
	rec := a.do(http.MethodPost, "/api/v1/post_review/create_post_review", alice, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Post 1 created", decodeMap(t, rec)["message"])

	rec = a.do(http.MethodPost, "/api/v1/post_review/create_post_review", alice,
		`{"food_name":"ramen","rating":5.5,"review":"rich"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPatch, "/api/v1/post_review/update_post_review?post_id=1", bob, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodDelete, "/api/v1/post_review/delete_post_review?post_id=1", bob, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodDelete, "/api/v1/post_review/delete_post_review?post_id=99", alice, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(http.MethodDelete, "/api/v1/post_review/delete_post_review?post_id=abc", alice, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodPatch, "/api/v1/post_review/update_post_review?post_id=1", alice,
		`{"food_name":"udon","rating":3,"review":"fine"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post 1 updated", decodeMap(t, rec)["message"])

	rec = a.do(http.MethodGet, "/api/v1/post_review/get_post_review", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "udon", views[0]["food_name"])
	assert.Equal(t, "alice", views[0]["username"])
	assert.Nil(t, views[0]["restaurant_name"])
	assert.Contains(t, views[0], "profile_pic")

	rec = a.do(http.MethodGet, "/api/v1/post_review/get_posts_by_id?user_id=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = a.do(http.MethodDelete, "/api/v1/post_review/delete_post_review?post_id=1", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post 1 deleted", decodeMap(t, rec)["message"])

	assert.Equal(t, 3, a.changes)
}

func TestLogout_Repeatable(t *testing.T) {
	a := newApp(t)
	token := a.registerAndLogin(t, aliceJSON, "alice", "pw")

	for i := 0; i < 2; i++ {
		rec := a.do(http.MethodPost, "/api/v1/auth/logout", token, "")
		require.Equal(t, http.StatusOK, rec.Code, "logout #%d: %s", i+1, rec.Body.String())
		assert.Equal(t, "Access token "+token+" added to blacklist", decodeMap(t, rec)["message"])
	}

	rec := a.do(http.MethodPost, "/api/v1/auth/logout", "garbage", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authenticated", decodeMap(t, rec)["detail"])
}
