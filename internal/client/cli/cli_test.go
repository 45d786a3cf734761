package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/masjidkeu/internal/client/api"
	"github.com/iudanet/masjidkeu/internal/client/auth"
	"github.com/iudanet/masjidkeu/internal/client/iocli"
	"github.com/iudanet/masjidkeu/internal/client/masterdata"
	"github.com/iudanet/masjidkeu/internal/client/session"
	"github.com/iudanet/masjidkeu/internal/client/storage/boltdb"
)

var testNow = time.Unix(1_700_000_000, 0)

type testEnv struct {
	cli    *Cli
	store  *session.TokenStore
	mockIO *iocli.IOMock
	out    *bytes.Buffer
}

// recordingIO собирает весь вывод в буфер
func recordingIO(out *bytes.Buffer) *iocli.IOMock {
	return &iocli.IOMock{
		PrintlnFunc: func(a ...any) { _, _ = fmt.Fprintln(out, a...) },
		PrintfFunc:  func(format string, a ...any) { _, _ = fmt.Fprintf(out, format, a...) },
		WriteFunc:   func(p []byte) (int, error) { return out.Write(p) },
	}
}

func newTestEnv(t *testing.T, handler http.Handler, env map[string]string) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	kv, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	store := session.NewTokenStore(kv)
	client := api.NewClient(server.URL)
	interceptor := auth.NewInterceptor(client, store, auth.DefaultEndpoints())

	out := &bytes.Buffer{}
	mockIO := recordingIO(out)

	c := New(Deps{
		IO:          mockIO,
		Auth:        auth.NewService(client, store, auth.DefaultEndpoints()),
		Store:       store,
		MasterData:  masterdata.NewClient(interceptor),
		Transport:   interceptor,
		Getenv:      func(key string) string { return env[key] },
		Now:         func() time.Time { return testNow },
		IdleTimeout: 30 * time.Minute,
	})
	interceptor.OnSessionExpired(c.HandleSessionExpired)

	return &testEnv{cli: c, store: store, mockIO: mockIO, out: out}
}

// login сохраняет сессию напрямую, активность: сейчас
func (e *testEnv) login(t *testing.T, access, refresh string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.SetAccessToken(ctx, access))
	require.NoError(t, e.store.SetRefreshToken(ctx, refresh))
	require.NoError(t, e.store.Touch(ctx, testNow))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestCli_Run_Usage(t *testing.T) {
	e := newTestEnv(t, http.NotFoundHandler(), nil)

	err := e.cli.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, e.out.String(), "Usage:")

	err = e.cli.Run(context.Background(), []string{"sync"})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	require.NoError(t, e.cli.Run(context.Background(), []string{"help"}))
}

func TestCli_Login(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, auth.DefaultLoginPath, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"accessToken":  "A1",
				"refreshToken": "R1",
				"user":         map[string]any{"name": "Ahmad"},
				"menus": map[string]any{
					"flat": []any{map[string]any{"title": "Regional", "path": "/master/regional"}},
				},
			},
		})
	}), nil)

	e.mockIO.ReadInputFunc = func(prompt string) (string, error) { return "bendahara@masjid.id", nil }
	e.mockIO.ReadPasswordFunc = func(prompt string) (string, error) { return "rahasia", nil }

	require.NoError(t, e.cli.Run(ctx, []string{"login", "-realm", "level"}))

	out := e.out.String()
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "Logged in as: Ahmad")
	assert.Contains(t, out, "Realm: level")
	assert.Len(t, e.mockIO.ReadPasswordCalls(), 1)

	sess, err := e.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A1", sess.AccessToken)
	assert.Equal(t, session.RealmLevel, sess.Realm)

	// Меню из ответа login доступно команде menus
	e.out.Reset()
	require.NoError(t, e.cli.Run(ctx, []string{"menus"}))
	assert.Contains(t, e.out.String(), "Regional (/master/regional)")
	assert.Contains(t, e.out.String(), "Flat items: 1, tree roots: 0")
}

func TestCli_LoginPasswordFromEnv(t *testing.T) {
	var gotPassword any
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotPassword = body["password"]
		writeJSON(w, http.StatusOK, map[string]any{"token": "A1"})
	}), map[string]string{EnvPassword: "dari-env"})

	// ReadInput и ReadPassword не заданы: вызов запаниковал бы
	require.NoError(t, e.cli.Run(context.Background(), []string{"login", "-email", "bendahara@masjid.id"}))
	assert.Equal(t, "dari-env", gotPassword)
	assert.Contains(t, e.out.String(), "Server issued no refresh token")
}

func TestCli_LoginErrors(t *testing.T) {
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Email atau password salah"})
	}), map[string]string{EnvPassword: "salah"})

	err := e.cli.Run(context.Background(), []string{"login", "-realm", "superadmin"})
	assert.ErrorIs(t, err, ErrUsage)

	err = e.cli.Run(context.Background(), []string{"login", "-email", "bendahara@masjid.id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email atau password salah")
}

func TestCli_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("not authenticated", func(t *testing.T) {
		e := newTestEnv(t, http.NotFoundHandler(), nil)
		require.NoError(t, e.cli.Run(ctx, []string{"status"}))
		assert.Contains(t, e.out.String(), "Not authenticated")
	})

	t.Run("jwt session", func(t *testing.T) {
		e := newTestEnv(t, http.NotFoundHandler(), nil)
		e.login(t, signedToken(t, testNow.Add(time.Hour)), "R1")
		require.NoError(t, e.store.SetDisplayName(ctx, "Ahmad"))
		require.NoError(t, e.store.Touch(ctx, testNow.Add(-10*time.Minute)))

		require.NoError(t, e.cli.Run(ctx, []string{"status"}))

		out := e.out.String()
		assert.Contains(t, out, "Status:        Authenticated")
		assert.Contains(t, out, "User:          Ahmad")
		assert.Contains(t, out, "Realm:         admin")
		assert.Contains(t, out, "Token expires:")
		assert.Contains(t, out, "Time remaining: 1h0m0s")
		assert.Contains(t, out, "Refresh token: present")
		assert.Contains(t, out, "Idle logout in: 20m0s")
	})

	t.Run("expired jwt", func(t *testing.T) {
		e := newTestEnv(t, http.NotFoundHandler(), nil)
		e.login(t, signedToken(t, testNow.Add(-time.Minute)), "")

		require.NoError(t, e.cli.Run(ctx, []string{"status"}))
		assert.Contains(t, e.out.String(), "Access token has expired")
		assert.Contains(t, e.out.String(), "Refresh token: missing")
	})

	t.Run("opaque token", func(t *testing.T) {
		e := newTestEnv(t, http.NotFoundHandler(), nil)
		e.login(t, "opaque-token", "R1")

		require.NoError(t, e.cli.Run(ctx, []string{"status"}))
		assert.NotContains(t, e.out.String(), "Token expires")
	})
}

func TestCli_RequestRefreshesOn401(t *testing.T) {
	ctx := context.Background()
	var refreshCalls atomic.Int32
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == auth.DefaultRefreshPath:
			refreshCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]string{"accessToken": "A2"})
		case r.Header.Get(api.HeaderAuthorization) == "Bearer A2":
			assert.Equal(t, http.MethodPost, r.Method)
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusCreated, map[string]any{"id": 1, "echo": body["kode"]})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
		}
	}), nil)
	e.login(t, "A1", "R1")

	require.NoError(t, e.cli.Run(ctx, []string{"request", "post", "/api/regional", `{"kode":"R1"}`}))

	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Contains(t, e.out.String(), `"echo": "R1"`)
}

func TestCli_RequestSessionExpired(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
	}), nil)
	e.login(t, "A1", "R1")

	err := e.cli.Run(ctx, []string{"request", "GET", "/api/users/me"})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
	assert.Contains(t, e.out.String(), SessionExpiredMessage)

	sess, err := e.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.RefreshToken)
}

func TestCli_RequestUsage(t *testing.T) {
	e := newTestEnv(t, http.NotFoundHandler(), nil)
	e.login(t, "A1", "R1")

	tests := [][]string{
		{"request", "GET"},
		{"request", "TRACE", "/api"},
		{"request", "GET", "api/regional"},
		{"request", "POST", "/api/regional", "{not json"},
	}
	for _, args := range tests {
		err := e.cli.Run(context.Background(), args)
		assert.ErrorIs(t, err, ErrUsage, "%v", args)
	}
}

func TestCli_RequestEmptyResponse(t *testing.T) {
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), nil)
	e.login(t, "A1", "R1")

	require.NoError(t, e.cli.Run(context.Background(), []string{"request", "DELETE", "/api/regional/1"}))
	assert.Contains(t, e.out.String(), "(empty response)")
}

func TestCli_IdleLogout(t *testing.T) {
	ctx := context.Background()
	var logoutBody map[string]any
	var paths []string
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.URL.Path == auth.DefaultLogoutPath {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&logoutBody))
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), nil)
	e.login(t, "A1", "R1")
	require.NoError(t, e.store.Touch(ctx, testNow.Add(-2*time.Hour)))

	err := e.cli.Run(ctx, []string{"list", "regional"})
	assert.ErrorIs(t, err, ErrIdleLogout)
	assert.Contains(t, e.out.String(), SessionExpiredMessage)

	// Только отзыв refresh token, сама команда не выполнялась
	assert.Equal(t, []string{http.MethodPost + " " + auth.DefaultLogoutPath}, paths)
	assert.Equal(t, map[string]any{"refresh_token": "R1"}, logoutBody)

	sess, err := e.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.RefreshToken)
}

func TestCli_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"accessToken": "A2", "refreshToken": "R2"})
		}), nil)
		e.login(t, "A1", "R1")

		require.NoError(t, e.cli.Run(ctx, []string{"refresh"}))
		assert.Contains(t, e.out.String(), "Access token refreshed")

		sess, err := e.store.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, "A2", sess.AccessToken)
		assert.Equal(t, "R2", sess.RefreshToken)
	})

	t.Run("rejected refresh token", func(t *testing.T) {
		e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "expired"})
		}), nil)
		e.login(t, "A1", "R1")

		err := e.cli.Run(ctx, []string{"refresh"})
		assert.ErrorIs(t, err, auth.ErrSessionExpired)
		assert.Contains(t, e.out.String(), SessionExpiredMessage)
		assert.False(t, e.store.IsAuthenticated(ctx))
	})

	t.Run("no refresh token", func(t *testing.T) {
		e := newTestEnv(t, http.NotFoundHandler(), nil)
		e.login(t, "A1", "")

		err := e.cli.Run(ctx, []string{"refresh"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "masjidkeu login")
	})
}

func TestCli_Logout(t *testing.T) {
	ctx := context.Background()
	var revoked atomic.Bool
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revoked.Store(r.URL.Path == auth.DefaultLogoutPath)
		w.WriteHeader(http.StatusNoContent)
	}), nil)
	e.login(t, "A1", "R1")

	require.NoError(t, e.cli.Run(ctx, []string{"logout"}))
	assert.True(t, revoked.Load())
	assert.False(t, e.store.IsAuthenticated(ctx))
	assert.Contains(t, e.out.String(), "Logged out")
}

func TestCli_ListCreateDelete(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer A1", r.Header.Get(api.HeaderAuthorization))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/daerah":
			assert.Equal(t, "garut", r.URL.Query().Get("search"))
			assert.Equal(t, "1", r.URL.Query().Get("regional_id"))
			assert.Equal(t, "ASC", r.URL.Query().Get("sortOrder"))
			writeJSON(w, http.StatusOK, map[string]any{
				"data":  []any{map[string]any{"id": 5, "kode": "D5", "nama": "Garut"}},
				"total": 1, "current_page": 1, "per_page": 10,
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/daerah":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "1", body["regional_id"])
			writeJSON(w, http.StatusCreated, map[string]any{"id": 6, "kode": body["kode"], "nama": body["nama"]})
		case r.Method == http.MethodDelete && r.URL.Path == "/api/daerah/6":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}), nil)
	e.login(t, "A1", "R1")

	require.NoError(t, e.cli.Run(ctx, []string{"list", "daerah", "-regional", "1", "-order", "asc", "garut"}))
	out := e.out.String()
	assert.Contains(t, out, "=== DAERAH ===")
	assert.Contains(t, out, "D5")
	assert.Contains(t, out, "Garut")
	assert.Contains(t, out, "showing 1 of 1")

	e.out.Reset()
	require.NoError(t, e.cli.Run(ctx, []string{"create", "daerah", "-regional", "1", "D6", "Tasik", "Malaya"}))
	assert.Contains(t, e.out.String(), "ID:   6")
	assert.Contains(t, e.out.String(), "Nama: Tasik Malaya")

	e.out.Reset()
	require.NoError(t, e.cli.Run(ctx, []string{"delete", "daerah", "6"}))
	assert.Contains(t, e.out.String(), "daerah 6 deleted")

	assert.ErrorIs(t, e.cli.Run(ctx, []string{"list", "masjid"}), ErrUsage)
	assert.ErrorIs(t, e.cli.Run(ctx, []string{"list", "regional", "-order", "up"}), ErrUsage)
	assert.ErrorIs(t, e.cli.Run(ctx, []string{"create", "regional", "R1"}), ErrUsage)
	assert.ErrorIs(t, e.cli.Run(ctx, []string{"delete", "regional"}), ErrUsage)
}

func TestCli_MenusEmpty(t *testing.T) {
	e := newTestEnv(t, http.NotFoundHandler(), nil)
	e.login(t, "A1", "R1")

	require.NoError(t, e.cli.Run(context.Background(), []string{"menus"}))
	assert.Contains(t, e.out.String(), "No menus stored")
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "-", formatID(nil))
	assert.Equal(t, "-", formatID(""))
	assert.Equal(t, "42", formatID(float64(42)))
	assert.Equal(t, "1.5", formatID(1.5))
	assert.Equal(t, "abc", formatID("abc"))
	assert.Equal(t, "true", formatID(true))
}

func TestTokenExpiry(t *testing.T) {
	exp, ok := tokenExpiry(signedToken(t, testNow))
	require.True(t, ok)
	assert.Equal(t, testNow.Unix(), exp.Unix())

	_, ok = tokenExpiry("not-a-jwt")
	assert.False(t, ok)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, ok = tokenExpiry(noExp)
	assert.False(t, ok)
}
