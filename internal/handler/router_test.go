package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/config"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/middleware"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/repository"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
)

type testApp struct {
	router   http.Handler
	store    sessions.Store
	users    *repository.MemoryUserRepository
	posts    *repository.MemoryPostRepository
	sessions service.SessionService
	postSvc  service.PostService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			SessionSecret:     "0123456789abcdef0123456789abcdef",
			SessionExpiry:     time.Hour,
			OAuthGoogleID:     "client-id",
			OAuthGoogleSecret: "client-secret",
			OAuthCallbackURL:  "http://localhost:3000",
		},
		Feed: config.FeedConfig{PageSize: 10},
	}

	users := repository.NewMemoryUserRepository()
	posts := repository.NewMemoryPostRepository()
	sessionSvc := service.NewSessionService(repository.NewMemorySessionRepository(), users, cfg.Auth.SessionExpiry)
	postSvc := service.NewPostService(posts)
	store := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))

	router := NewRouter(RouterConfig{
		Config: cfg,
		Services: Services{
			OAuth:    service.NewOAuthService(&cfg.Auth, users, sessionSvc),
			Sessions: sessionSvc,
			Posts:    postSvc,
			Feed:     service.NewFeedService(posts, users, cfg.Feed.PageSize),
		},
		Store: store,
	})

	return &testApp{
		router:   router,
		store:    store,
		users:    users,
		posts:    posts,
		sessions: sessionSvc,
		postSvc:  postSvc,
	}
}

// login creates a user with an open session and returns the browser cookie for it.
func (a *testApp) login(t *testing.T, name string) (*models.User, *http.Cookie) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{GoogleID: "google-" + name, DisplayName: name, Email: name + "@example.com"}
	require.NoError(t, a.users.Create(ctx, user))
	session, err := a.sessions.Begin(ctx, user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s, err := a.store.Get(req, middleware.SessionCookieName)
	require.NoError(t, err)
	s.Values[middleware.SessionIDKey] = session.ID
	require.NoError(t, s.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return user, cookies[0]
}

func (a *testApp) do(method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) createPost(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	post, err := a.postSvc.Create(context.Background(), models.NewPrincipal(author, "s"), service.PostInput{
		Title:   title,
		Content: "body of " + title,
	})
	require.NoError(t, err)
	return post
}

func TestRouter_UnauthenticatedRedirects(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/dashboard"},
		{http.MethodGet, "/profile"},
		{http.MethodGet, "/posts/new"},
		{http.MethodPost, "/posts"},
		{http.MethodPost, "/posts/01HZX3J5A8W9Y2K4M6N7P8Q9R0/like"},
		{http.MethodPost, "/api/posts/01HZX3J5A8W9Y2K4M6N7P8Q9R0/like"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, nil, nil)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/", rec.Header().Get("Location"))
		})
	}
}

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_LandingRedirectsSignedInUser(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "alice")

	rec := app.do(http.MethodGet, "/", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = app.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/auth/google")
}

func TestRouter_CreatePostShowsInFeed(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "alice")

	rec := app.do(http.MethodPost, "/posts", url.Values{
		"title":   {"Hello world"},
		"content": {"First post"},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/dashboard"))

	rec = app.do(http.MethodGet, "/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Hello world")
	assert.Contains(t, body, "First post")
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "/edit")
}

func TestRouter_CreatePostInvalid(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "alice")

	rec := app.do(http.MethodPost, "/posts", url.Values{"title": {"  "}, "content": {""}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "title is required")

	count, err := app.posts.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRouter_APIToggleLike(t *testing.T) {
	app := newTestApp(t)
	alice, _ := app.login(t, "alice")
	_, bobCookie := app.login(t, "bob")
	post := app.createPost(t, alice, "Likeable")

	var res service.LikeResult

	rec := app.do(http.MethodPost, "/api/posts/"+post.ID+"/like", nil, bobCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.LikeCount)

	rec = app.do(http.MethodPost, "/api/posts/"+post.ID+"/like", nil, bobCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.LikeCount)

	rec = app.do(http.MethodPost, "/api/posts/01HZX3J5A8W9Y2K4M6N7P8Q9R0/like", nil, bobCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_FormLikeAndComment(t *testing.T) {
	app := newTestApp(t)
	alice, cookie := app.login(t, "alice")
	post := app.createPost(t, alice, "Discuss")

	rec := app.do(http.MethodPost, "/posts/"+post.ID+"/like", url.Values{"page": {"1"}}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard#post-"+post.ID, rec.Header().Get("Location"))

	rec = app.do(http.MethodPost, "/posts/"+post.ID+"/comments", url.Values{"comment": {"Nice one"}}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = app.do(http.MethodPost, "/posts/"+post.ID+"/comments", url.Values{"comment": {"   "}}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	stored, err := app.posts.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikeCount())
	require.Len(t, stored.Comments, 1)
	assert.Equal(t, "Nice one", stored.Comments[0].Text)

	rec = app.do(http.MethodGet, "/dashboard", nil, cookie)
	assert.Contains(t, rec.Body.String(), "Nice one")
	assert.Contains(t, rec.Body.String(), "Unlike")
}

func TestRouter_ForeignMutationsRejected(t *testing.T) {
	app := newTestApp(t)
	alice, _ := app.login(t, "alice")
	_, bobCookie := app.login(t, "bob")
	post := app.createPost(t, alice, "Mine")

	rec := app.do(http.MethodPost, "/posts/"+post.ID+"/update", url.Values{
		"title":   {"Hijacked"},
		"content": {"Hijacked"},
	}, bobCookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = app.do(http.MethodPost, "/posts/"+post.ID+"/delete", url.Values{}, bobCookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = app.do(http.MethodGet, "/posts/"+post.ID+"/edit", nil, bobCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodGet, "/posts/01HZX3J5A8W9Y2K4M6N7P8Q9R0/edit", nil, bobCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored, err := app.posts.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Mine", stored.Title)
}

func TestRouter_OwnerUpdateAndDelete(t *testing.T) {
	app := newTestApp(t)
	alice, cookie := app.login(t, "alice")
	post := app.createPost(t, alice, "Draft")

	rec := app.do(http.MethodGet, "/posts/"+post.ID+"/edit", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Draft")

	rec = app.do(http.MethodPost, "/posts/"+post.ID+"/update", url.Values{
		"title":   {"Final"},
		"content": {"Done"},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.NotContains(t, rec.Header().Get("Location"), "error=")

	stored, err := app.posts.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", stored.Title)

	rec = app.do(http.MethodPost, "/posts/"+post.ID+"/delete", url.Values{}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	stored, err = app.posts.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestRouter_Profile(t *testing.T) {
	app := newTestApp(t)
	alice, cookie := app.login(t, "alice")
	_, bobCookie := app.login(t, "bob")
	carol, carolCookie := app.login(t, "carol")
	one := app.createPost(t, alice, "One")
	app.createPost(t, alice, "Two")
	app.createPost(t, carol, "Not counted")

	for _, c := range []*http.Cookie{bobCookie, carolCookie} {
		rec := app.do(http.MethodPost, "/api/posts/"+one.ID+"/like", nil, c)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := app.do(http.MethodGet, "/profile", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "<dt>Posts</dt><dd>2</dd>")
	assert.Contains(t, body, "<dt>Likes received</dt><dd>2</dd>")

	rec = app.do(http.MethodGet, "/profile", nil, bobCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<dt>Posts</dt><dd>0</dd>")
	assert.Contains(t, rec.Body.String(), "<dt>Likes received</dt><dd>0</dd>")
}

func TestRouter_DashboardHugePage(t *testing.T) {
	app := newTestApp(t)
	alice, cookie := app.login(t, "alice")
	app.createPost(t, alice, "Only post")

	pages := []string{"922337203685477581", "922337203685477582", "9223372036854775807"}
	for _, page := range pages {
		t.Run(page, func(t *testing.T) {
			rec := app.do(http.MethodGet, "/dashboard?page="+page, nil, cookie)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, rec.Body.String(), "Only post")
			assert.Contains(t, rec.Body.String(), "No posts here yet")
		})
	}
}

func TestRouter_OAuth(t *testing.T) {
	app := newTestApp(t)

	t.Run("start redirects to google with state cookie", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/auth/google", nil, nil)
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "accounts.google.com", loc.Host)
		assert.NotEmpty(t, loc.Query().Get("state"))
		assert.Equal(t, "http://localhost:3000/auth/google/callback", loc.Query().Get("redirect_uri"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "blog_oauth_state=")
	})

	t.Run("callback without state cookie", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/auth/google/callback?state=forged&code=abc", nil, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/?error=Invalid+OAuth+state", rec.Header().Get("Location"))
	})

	t.Run("provider error", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/auth/google/callback?error=access_denied", nil, nil)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "/?error=")
	})
}

func TestRouter_Logout(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.login(t, "alice")

	rec := app.do(http.MethodGet, "/logout", nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = app.do(http.MethodGet, "/dashboard", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthHandler_ReadyReportsFailures(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{"mongo": failingPinger{}})

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "not_ready")
}
