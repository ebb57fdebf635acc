package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/auth"
	"github.com/serroba/linkstats/internal/handlers"
	"github.com/serroba/linkstats/internal/messaging"
	"github.com/serroba/linkstats/internal/middleware"
	"github.com/serroba/linkstats/internal/redirect"
	"github.com/serroba/linkstats/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testHost = "sho.rt"

var fixedNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

// noopPublish returns a publish function that always succeeds.
func noopPublish[T any]() messaging.Publish[T] {
	return func(context.Context, *T) error { return nil }
}

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(context.Context, *T) error { return err }
}

type testEnv struct {
	router *chi.Mux
	store  *mockStore
	issuer *auth.Issuer
}

type envConfig struct {
	creator    handlers.LinkCreator
	publishErr error
}

func newTestEnv(t *testing.T, cfg envConfig) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	st := newMockStore()
	issuer := auth.NewIssuer("test-secret", time.Hour)

	createdPublish := noopPublish[analytics.LinkCreatedEvent]()
	clickedPublish := noopPublish[analytics.LinkClickedEvent]()

	if cfg.publishErr != nil {
		createdPublish = errorPublish[analytics.LinkCreatedEvent](cfg.publishErr)
		clickedPublish = errorPublish[analytics.LinkClickedEvent](cfg.publishErr)
	}

	service := shortener.NewService(st, shortener.NewGenerator(st, shortener.UUIDHexSource()), 0, logger)
	recorder := analytics.NewRecorder(st, clickedPublish, func() time.Time { return fixedNow }, logger)
	resolver := redirect.NewResolver(st, recorder, logger)
	aggregator := analytics.NewAggregator(st, time.UTC, analytics.DefaultWindowDays)

	var creator handlers.LinkCreator = service
	if cfg.creator != nil {
		creator = cfg.creator
	}

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestContext(issuer, logger))

	handlers.RegisterRoutes(api,
		handlers.NewURLHandler(creator, resolver, createdPublish, logger),
		handlers.NewLinksHandler(service, aggregator, func() time.Time { return fixedNow }, logger),
		handlers.NewSessionHandler(issuer, logger),
	)

	return &testEnv{router: router, store: st, issuer: issuer}
}

func (e *testEnv) do(req *http.Request, token string) *httptest.ResponseRecorder {
	req.Host = testHost
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func (e *testEnv) shorten(t *testing.T, link, token string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{"link": {link}}
	req := httptest.NewRequest(http.MethodPost, "/shorten", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return e.do(req, token)
}

func (e *testEnv) token(t *testing.T, owner shortener.OwnerID) string {
	t.Helper()

	token, err := e.issuer.IssueFor(owner)
	require.NoError(t, err)

	return token
}

func codeOf(t *testing.T, shortURL string) string {
	t.Helper()

	code, ok := strings.CutPrefix(shortURL, "https://"+testHost+"/")
	require.True(t, ok, "unexpected short url %q", shortURL)

	return code
}

func TestShorten(t *testing.T) {
	t.Run("returns the short url as plain text", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		w := env.shorten(t, testURL, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Regexp(t, `^https://sho\.rt/[0-9a-f]{8}$`, w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

		link, err := env.store.GetByCode(context.Background(), shortener.Code(codeOf(t, w.Body.String())))
		require.NoError(t, err)
		assert.Equal(t, testURL, link.OriginalURL)
		assert.True(t, link.Owner.Anonymous())
	})

	t.Run("rejects invalid urls with an empty 400", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		invalid := []string{
			"",
			"not a url",
			"javascript:alert(1)",
			"https://",
			" https://example.com/page",
			"https://example.com/page\n",
			"http://example.com/a b",
			"http://256.0.0.1/",
		}

		for _, link := range invalid {
			w := env.shorten(t, link, "")

			assert.Equal(t, http.StatusBadRequest, w.Code, link)
			assert.Empty(t, w.Body.String(), link)
		}

		assert.Zero(t, env.store.createCalls)
	})

	t.Run("rejects a form without the link field", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		req := httptest.NewRequest(http.MethodPost, "/shorten", strings.NewReader("url="+testURL))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		w := env.do(req, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, env.store.createCalls)
	})

	t.Run("accepts multipart forms", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("link", testURL))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/shorten", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		w := env.do(req, "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Regexp(t, `^https://sho\.rt/[0-9a-f]{8}$`, w.Body.String())
	})

	t.Run("records the owner of authenticated requests", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		w := env.shorten(t, testURL, env.token(t, "alice"))
		require.Equal(t, http.StatusOK, w.Code)

		link, err := env.store.GetByCode(context.Background(), shortener.Code(codeOf(t, w.Body.String())))
		require.NoError(t, err)
		assert.Equal(t, shortener.OwnerID("alice"), link.Owner)
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		env := newTestEnv(t, envConfig{publishErr: errMock})

		w := env.shorten(t, testURL, "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("returns 503 when no code is free", func(t *testing.T) {
		env := newTestEnv(t, envConfig{creator: stubCreator{err: shortener.ErrCodeSpaceExhausted}})

		w := env.shorten(t, testURL, "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("returns 500 on unexpected errors", func(t *testing.T) {
		env := newTestEnv(t, envConfig{creator: stubCreator{err: errMock}})

		w := env.shorten(t, testURL, "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRedirect(t *testing.T) {
	t.Run("redirects temporarily and records the click", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		code := codeOf(t, env.shorten(t, testURL, "").Body.String())

		req := httptest.NewRequest(http.MethodGet, "/"+code, nil)
		req.Header.Set("User-Agent", "TestAgent/1.0")
		req.Header.Set("Referer", "https://referrer.com")
		req.Header.Set("X-Forwarded-For", "192.168.1.1")

		w := env.do(req, "")

		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testURL, w.Header().Get("Location"))
		assert.Equal(t, "private, no-store", w.Header().Get("Cache-Control"))

		clicks, err := env.store.RecentClicks(context.Background(), shortener.Code(code), 10)
		require.NoError(t, err)
		require.Len(t, clicks, 1)
		assert.Equal(t, "192.168.1.1", clicks[0].ClientIP)
		assert.Equal(t, "TestAgent/1.0", clicks[0].UserAgent)
		assert.Equal(t, "https://referrer.com", clicks[0].Referrer)
		assert.Equal(t, fixedNow, clicks[0].ClickedAt)
	})

	t.Run("answers HEAD like GET", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		code := codeOf(t, env.shorten(t, testURL, "").Body.String())

		w := env.do(httptest.NewRequest(http.MethodHead, "/"+code, nil), "")

		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testURL, w.Header().Get("Location"))
		assert.Empty(t, w.Body.String())

		clicks, err := env.store.RecentClicks(context.Background(), shortener.Code(code), 10)
		require.NoError(t, err)
		assert.Len(t, clicks, 1)
	})

	t.Run("answers HEAD with 404 when code not found", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		w := env.do(httptest.NewRequest(http.MethodHead, "/deadbeef", nil), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 404 when code not found", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		w := env.do(httptest.NewRequest(http.MethodGet, "/deadbeef", nil), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns 500 on store error", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		code := codeOf(t, env.shorten(t, testURL, "").Body.String())
		env.store.getErr = errMock

		w := env.do(httptest.NewRequest(http.MethodGet, "/"+code, nil), "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("fails instead of redirecting when the click cannot be stored", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		code := codeOf(t, env.shorten(t, testURL, "").Body.String())
		env.store.saveClickErr = errMock

		w := env.do(httptest.NewRequest(http.MethodGet, "/"+code, nil), "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Location"))
	})

	t.Run("still records the click when publish fails", func(t *testing.T) {
		env := newTestEnv(t, envConfig{publishErr: errMock})
		code := codeOf(t, env.shorten(t, testURL, "").Body.String())

		w := env.do(httptest.NewRequest(http.MethodGet, "/"+code, nil), "")

		require.Equal(t, http.StatusFound, w.Code)

		clicks, err := env.store.RecentClicks(context.Background(), shortener.Code(code), 10)
		require.NoError(t, err)
		assert.Len(t, clicks, 1)
	})
}

type detailBody struct {
	Link struct {
		Code        string `json:"code"`
		ShortURL    string `json:"shortUrl"`
		OriginalURL string `json:"originalUrl"`
	} `json:"link"`
	RecentClicks  []map[string]any   `json:"recentClicks"`
	ClicksByDay   json.RawMessage    `json:"clicksByDay"`
	Days          []handlers.DayView `json:"days"`
	TotalInWindow int                `json:"totalInWindow"`
}

func TestLinkDetail(t *testing.T) {
	t.Run("counts three visits in today's bucket", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		token := env.token(t, "alice")
		code := codeOf(t, env.shorten(t, testURL, token).Body.String())

		for range 3 {
			require.Equal(t, http.StatusFound, env.do(httptest.NewRequest(http.MethodGet, "/"+code, nil), "").Code)
		}

		w := env.do(httptest.NewRequest(http.MethodGet, "/links/"+code, nil), token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body detailBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		assert.Equal(t, code, body.Link.Code)
		assert.Equal(t, "https://sho.rt/"+code, body.Link.ShortURL)
		assert.Equal(t, testURL, body.Link.OriginalURL)
		assert.Len(t, body.RecentClicks, 3)
		assert.Equal(t, 3, body.TotalInWindow)
		assert.True(t, strings.HasPrefix(string(body.ClicksByDay), `{"15/10":3,"14/10":0`), string(body.ClicksByDay))

		var byDay map[string]int
		require.NoError(t, json.Unmarshal(body.ClicksByDay, &byDay))
		assert.Len(t, byDay, analytics.DefaultWindowDays)

		require.Len(t, body.Days, analytics.DefaultWindowDays)
		assert.Equal(t, handlers.DayView{Date: "2024-10-15", Label: "15/10", Count: 3}, body.Days[0])
		assert.Equal(t, "2024-09-15", body.Days[30].Date)
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		code := codeOf(t, env.shorten(t, testURL, env.token(t, "alice")).Body.String())

		w := env.do(httptest.NewRequest(http.MethodGet, "/links/"+code, nil), "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refuses other owners", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		code := codeOf(t, env.shorten(t, testURL, env.token(t, "alice")).Body.String())

		w := env.do(httptest.NewRequest(http.MethodGet, "/links/"+code, nil), env.token(t, "bob"))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("refuses anonymous links", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		code := codeOf(t, env.shorten(t, testURL, "").Body.String())

		w := env.do(httptest.NewRequest(http.MethodGet, "/links/"+code, nil), env.token(t, "bob"))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("returns 404 for unknown codes", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		w := env.do(httptest.NewRequest(http.MethodGet, "/links/deadbeef", nil), env.token(t, "alice"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListLinks(t *testing.T) {
	t.Run("lists own links newest first", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})
		alice := env.token(t, "alice")

		first := codeOf(t, env.shorten(t, "https://example.com/1", alice).Body.String())
		second := codeOf(t, env.shorten(t, "https://example.com/2", alice).Body.String())
		env.shorten(t, "https://example.com/other", env.token(t, "bob"))
		env.shorten(t, "https://example.com/anon", "")

		w := env.do(httptest.NewRequest(http.MethodGet, "/links", nil), alice)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Links []handlers.LinkView `json:"links"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		require.Len(t, body.Links, 2)
		assert.Equal(t, second, body.Links[0].Code)
		assert.Equal(t, first, body.Links[1].Code)
		assert.Equal(t, "https://example.com/2", body.Links[0].OriginalURL)
	})

	t.Run("returns an empty list for a new owner", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		w := env.do(httptest.NewRequest(http.MethodGet, "/links", nil), env.token(t, "carol"))

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.JSONEq(t, `[]`, string(body["links"]))
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t, envConfig{})

		w := env.do(httptest.NewRequest(http.MethodGet, "/links", nil), "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, envConfig{})

	w := env.do(httptest.NewRequest(http.MethodPost, "/session", nil), "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OwnerID string `json:"ownerId"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.OwnerID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, body.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// The cookie alone authenticates later requests.
	req := httptest.NewRequest(http.MethodGet, "/links", nil)
	req.AddCookie(cookies[0])

	assert.Equal(t, http.StatusOK, env.do(req, "").Code)
}
