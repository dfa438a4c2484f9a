package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/shared"
	tu "github.com/desertthunder/cadence/internal/testing"
)

type testEnv struct {
	t      *testing.T
	server *Server
	store  *repositories.Store
	songs  []*models.Song
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	store := repositories.NewStore(tu.MustOpenDB(t))
	logger := log.New(io.Discard)
	tokens, err := services.NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}

	srv, err := New(Options{
		Config: shared.ServerConfig{LoginRate: 100, LoginBurst: 100},
		Store:  store,
		Auth:   services.NewAuthService(store, logger),
		Tokens: tokens,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	env := &testEnv{t: t, server: srv, store: store}
	for _, title := range []string{"Shape of You", "Blinding Lights", "Believer"} {
		song, err := store.Songs.Create(context.Background(), models.Song{Title: title, Artist: "Artist", FilePath: "/" + title + ".mp3"})
		if err != nil {
			t.Fatalf("failed to create song: %v", err)
		}
		env.songs = append(env.songs, song)
	}
	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

// login registers username and returns a bearer token for it.
func (e *testEnv) login(username string) string {
	e.t.Helper()

	rec := e.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": username, "email": username + "@example.com", "password": "secret",
	})
	if rec.Code != http.StatusCreated {
		e.t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body)
	}

	rec = e.do(http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": "secret"})
	if rec.Code != http.StatusOK {
		e.t.Fatalf("login %s: expected 200, got %d: %s", username, rec.Code, rec.Body)
	}
	var resp loginResponse
	decode(e.t, rec, &resp)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body)
	}
}

func TestAuthRoutes(t *testing.T) {
	env := setupServer(t)

	t.Run("oversized body", func(t *testing.T) {
		body := map[string]string{"username": strings.Repeat("x", maxBodyBytes), "email": "x@x.com", "password": "secret"}
		rec := env.do(http.MethodPost, "/api/register", "", body)
		expectStatus(t, rec, http.StatusRequestEntityTooLarge)

		var resp errorBody
		decode(t, rec, &resp)
		if !strings.Contains(resp.Error, "too large") {
			t.Errorf("expected size error, got %q", resp.Error)
		}
	})

	t.Run("register validation", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/register", "", map[string]string{"username": "x", "email": "nope", "password": "secret"})
		expectStatus(t, rec, http.StatusBadRequest)

		var body errorBody
		decode(t, rec, &body)
		if body.Error == "" {
			t.Error("expected error message")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/register", "", "{not json")
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("unknown fields", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/register", "", `{"username":"a","email":"a@x","password":"pass","admin":true}`)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	token := env.login("alice")

	t.Run("duplicate register", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "email": "other@example.com", "password": "secret"})
		expectStatus(t, rec, http.StatusConflict)
	})

	t.Run("bad login", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "wrong"})
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("me", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/me", token, nil)
		expectStatus(t, rec, http.StatusOK)

		var resp meResponse
		decode(t, rec, &resp)
		if resp.User.Username != "alice" {
			t.Errorf("expected alice, got %s", resp.User.Username)
		}
		if resp.Subscription == nil || resp.Subscription.Level != models.LevelFree || !resp.Subscription.Active {
			t.Errorf("expected active free subscription, got %+v", resp.Subscription)
		}
		if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
			t.Error("password hash leaked in response")
		}
	})

	t.Run("missing token", func(t *testing.T) {
		expectStatus(t, env.do(http.MethodGet, "/api/me", "", nil), http.StatusUnauthorized)
		expectStatus(t, env.do(http.MethodGet, "/api/me", "garbage", nil), http.StatusUnauthorized)
	})

	t.Run("change password", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/api/me/password", token, map[string]string{"old_password": "wrong", "new_password": "newsecret"})
		expectStatus(t, rec, http.StatusUnauthorized)

		rec = env.do(http.MethodPut, "/api/me/password", token, map[string]string{"old_password": "secret", "new_password": "newsecret"})
		expectStatus(t, rec, http.StatusNoContent)

		rec = env.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "newsecret"})
		expectStatus(t, rec, http.StatusOK)
	})
}

func TestSongRoutes(t *testing.T) {
	env := setupServer(t)
	token := env.login("alice")

	t.Run("list", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/songs", "", nil)
		expectStatus(t, rec, http.StatusOK)

		var songs []formatter.SongResponse
		decode(t, rec, &songs)
		if len(songs) != 3 {
			t.Errorf("expected 3 songs, got %d", len(songs))
		}
	})

	t.Run("search", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/songs/search?q=LIGHTS", "", nil)
		expectStatus(t, rec, http.StatusOK)

		var songs []formatter.SongResponse
		decode(t, rec, &songs)
		if len(songs) != 1 || songs[0].Title != "Blinding Lights" {
			t.Errorf("expected Blinding Lights, got %+v", songs)
		}
	})

	t.Run("empty search", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/songs/search", "", nil)
		expectStatus(t, rec, http.StatusOK)
		if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
			t.Errorf("expected [], got %s", got)
		}
	})

	t.Run("detail", func(t *testing.T) {
		expectStatus(t, env.do(http.MethodGet, "/api/songs/999", "", nil), http.StatusNotFound)
		expectStatus(t, env.do(http.MethodGet, "/api/songs/abc", "", nil), http.StatusBadRequest)

		id := strconv.FormatInt(env.songs[0].ID, 10)
		rec := env.do(http.MethodPut, "/api/songs/"+id+"/rating", token, map[string]int{"rating": 4})
		expectStatus(t, rec, http.StatusOK)

		rec = env.do(http.MethodGet, "/api/songs/"+id, "", nil)
		expectStatus(t, rec, http.StatusOK)
		var detail formatter.SongDetailResponse
		decode(t, rec, &detail)
		if detail.AverageRating != 4 {
			t.Errorf("expected average 4, got %v", detail.AverageRating)
		}
	})

	t.Run("rating out of range", func(t *testing.T) {
		id := strconv.FormatInt(env.songs[0].ID, 10)
		expectStatus(t, env.do(http.MethodPut, "/api/songs/"+id+"/rating", token, map[string]int{"rating": 6}), http.StatusBadRequest)
		expectStatus(t, env.do(http.MethodPut, "/api/songs/"+id+"/rating", "", map[string]int{"rating": 3}), http.StatusUnauthorized)
	})

	t.Run("play and history", func(t *testing.T) {
		for _, song := range env.songs {
			rec := env.do(http.MethodPost, "/api/songs/"+strconv.FormatInt(song.ID, 10)+"/play", token, nil)
			expectStatus(t, rec, http.StatusCreated)
		}
		expectStatus(t, env.do(http.MethodPost, "/api/songs/999/play", token, nil), http.StatusNotFound)

		rec := env.do(http.MethodGet, "/api/history?limit=2", token, nil)
		expectStatus(t, rec, http.StatusOK)
		var entries []formatter.HistoryEntryResponse
		decode(t, rec, &entries)
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Song == nil || entries[0].Song.ID != env.songs[2].ID {
			t.Errorf("expected newest play first, got %+v", entries[0].Song)
		}

		expectStatus(t, env.do(http.MethodGet, "/api/history?limit=zero", token, nil), http.StatusBadRequest)
	})

	t.Run("wrong method", func(t *testing.T) {
		expectStatus(t, env.do(http.MethodDelete, "/api/songs", "", nil), http.StatusMethodNotAllowed)
	})
}

func TestPlaylistRoutes(t *testing.T) {
	env := setupServer(t)
	alice := env.login("alice")
	bob := env.login("bob")

	rec := env.do(http.MethodPost, "/api/playlists", alice, map[string]string{"name": "Road Trip"})
	expectStatus(t, rec, http.StatusCreated)
	var created formatter.PlaylistResponse
	decode(t, rec, &created)
	if created.Songs == nil || len(created.Songs) != 0 {
		t.Fatalf("expected empty non-nil songs, got %+v", created.Songs)
	}
	base := "/api/playlists/" + strconv.FormatInt(created.ID, 10)

	t.Run("empty name", func(t *testing.T) {
		expectStatus(t, env.do(http.MethodPost, "/api/playlists", alice, map[string]string{"name": " "}), http.StatusBadRequest)
	})

	t.Run("add songs", func(t *testing.T) {
		var resp map[string]bool
		rec := env.do(http.MethodPost, base+"/songs", alice, map[string]int64{"song_id": env.songs[1].ID})
		expectStatus(t, rec, http.StatusOK)
		decode(t, rec, &resp)
		if !resp["added"] {
			t.Error("expected first add to report added")
		}

		rec = env.do(http.MethodPost, base+"/songs", alice, map[string]int64{"song_id": env.songs[1].ID})
		expectStatus(t, rec, http.StatusOK)
		decode(t, rec, &resp)
		if resp["added"] {
			t.Error("expected duplicate add to report not added")
		}

		expectStatus(t, env.do(http.MethodPost, base+"/songs", alice, map[string]int64{"song_id": 999}), http.StatusNotFound)
	})

	t.Run("other users see 404", func(t *testing.T) {
		expectStatus(t, env.do(http.MethodGet, base, bob, nil), http.StatusNotFound)
		expectStatus(t, env.do(http.MethodDelete, base, bob, nil), http.StatusNotFound)
		expectStatus(t, env.do(http.MethodPost, base+"/songs", bob, map[string]int64{"song_id": env.songs[0].ID}), http.StatusNotFound)

		rec := env.do(http.MethodGet, "/api/playlists", bob, nil)
		expectStatus(t, rec, http.StatusOK)
		var list []formatter.PlaylistResponse
		decode(t, rec, &list)
		if len(list) != 0 {
			t.Errorf("expected bob to have no playlists, got %d", len(list))
		}
	})

	t.Run("get and remove", func(t *testing.T) {
		rec := env.do(http.MethodGet, base, alice, nil)
		expectStatus(t, rec, http.StatusOK)
		var got formatter.PlaylistResponse
		decode(t, rec, &got)
		if len(got.Songs) != 1 || got.Songs[0].ID != env.songs[1].ID {
			t.Fatalf("unexpected songs: %+v", got.Songs)
		}

		songPath := base + "/songs/" + strconv.FormatInt(env.songs[1].ID, 10)
		var resp map[string]bool
		rec = env.do(http.MethodDelete, songPath, alice, nil)
		expectStatus(t, rec, http.StatusOK)
		decode(t, rec, &resp)
		if !resp["removed"] {
			t.Error("expected removed true")
		}

		rec = env.do(http.MethodDelete, songPath, alice, nil)
		decode(t, rec, &resp)
		if resp["removed"] {
			t.Error("expected second remove to report false")
		}
	})

	t.Run("delete", func(t *testing.T) {
		expectStatus(t, env.do(http.MethodDelete, base, alice, nil), http.StatusNoContent)
		expectStatus(t, env.do(http.MethodGet, base, alice, nil), http.StatusNotFound)
	})
}

func TestSubscriptionRoutes(t *testing.T) {
	env := setupServer(t)
	token := env.login("alice")

	rec := env.do(http.MethodPut, "/api/subscription", token, map[string]any{"level": "premium", "days": 30})
	expectStatus(t, rec, http.StatusOK)
	var sub formatter.SubscriptionResponse
	decode(t, rec, &sub)
	if sub.Level != models.LevelPremium || sub.EndDate == nil || !sub.Active {
		t.Errorf("unexpected subscription: %+v", sub)
	}

	expectStatus(t, env.do(http.MethodPut, "/api/subscription", token, map[string]string{"level": "gold"}), http.StatusBadRequest)
	for _, days := range []int{-1, models.MaxSubscriptionDays + 1, 1_000_000_000} {
		rec := env.do(http.MethodPut, "/api/subscription", token, map[string]any{"level": "premium", "days": days})
		expectStatus(t, rec, http.StatusBadRequest)
	}

	rec = env.do(http.MethodGet, "/api/subscription", token, nil)
	expectStatus(t, rec, http.StatusOK)
	decode(t, rec, &sub)
	if sub.Level != models.LevelPremium {
		t.Errorf("expected premium, got %s", sub.Level)
	}
}

func TestMiddleware(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("request id", func(t *testing.T) {
		env := setupServer(t)
		rec := env.do(http.MethodGet, "/api/songs", "", nil)
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected request id header")
		}
	})

	t.Run("recoverer", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(RequestLogger(logger), Recoverer(logger))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		expectStatus(t, rec, http.StatusInternalServerError)
	})

	t.Run("recoverer logs with request id", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)

		router := NewBasicRouter()
		router.Use(RequestLogger(logger), Recoverer(logger))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		expectStatus(t, rec, http.StatusInternalServerError)
		if rec.Header().Get(RequestIDHeader) != "req-123" {
			t.Errorf("expected echoed request id, got %q", rec.Header().Get(RequestIDHeader))
		}
		out := buf.String()
		if !strings.Contains(out, "handler panicked") || strings.Count(out, "request_id=req-123") != 2 {
			t.Errorf("expected panic and access log tagged with request id, got:\n%s", out)
		}
	})

	t.Run("logger falls back outside a request", func(t *testing.T) {
		if Logger(context.Background(), logger) != logger {
			t.Error("expected fallback logger")
		}
	})

	t.Run("login rate limit", func(t *testing.T) {
		limiter := newIPLimiter(1, 2)
		limiter.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

		router := NewBasicRouter()
		router.Handle(http.MethodPost, "/api/login", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}), RateLimit(limiter))

		codes := make([]int, 0, 3)
		for range 3 {
			req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
			req.RemoteAddr = "198.51.100.7:5555"
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
			t.Errorf("expected 200, 200, 429; got %v", codes)
		}

		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		expectStatus(t, rec, http.StatusOK)
	})

	t.Run("expired token", func(t *testing.T) {
		env := setupServer(t)
		issuer, _ := services.NewTokenIssuer("test-secret", time.Nanosecond)
		token, _ := issuer.Issue(&models.User{ID: 1, Username: "ghost"})
		time.Sleep(time.Millisecond)

		rec := env.do(http.MethodGet, "/api/me", token, nil)
		expectStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrValidation, http.StatusBadRequest},
		{shared.ErrInvalidCredentials, http.StatusUnauthorized},
		{shared.ErrTokenExpired, http.StatusUnauthorized},
		{notFound("song", 1), http.StatusNotFound},
		{shared.ErrConstraintViolation, http.StatusConflict},
		{shared.ErrRateLimited, http.StatusTooManyRequests},
		{shared.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{shared.ErrStorageUnavailable, http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
