package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	CSRF   string
	Auth   string
	Body   string
}

// recordingServer answers every request through handle and remembers what it saw.
func recordingServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []seenRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []seenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sr := seenRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			CSRF:   r.Header.Get(CSRFHeaderName),
			Body:   string(body),
		}
		if ck, err := r.Cookie(AuthCookieName); err == nil {
			sr.Auth = ck.Value
		}
		mu.Lock()
		seen = append(seen, sr)
		mu.Unlock()
		if _, err := r.Cookie(CSRFCookieName); err != nil {
			http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "csrf-abc", Path: "/"})
		}
		handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []seenRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]seenRequest(nil), seen...)
	}
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestListGamesQuery(t *testing.T) {
	srv, seen := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.GamesResponse{Games: []models.Game{{ID: "g1", Name: "x"}}})
	})
	c := New(srv.URL, WithAuthToken("tok"), WithLogger(quiet()))

	games, err := c.ListGames(context.Background(), models.ListGamesOptions{TenantWide: true, UserID: "u7"})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].ID)

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/games", reqs[0].Path)
	assert.Equal(t, "tenant_wide=true&user_id=u7", reqs[0].Query)
	assert.Equal(t, "tok", reqs[0].Auth)
}

func TestMutationFetchesAndEchoesCSRF(t *testing.T) {
	srv, seen := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.Write([]byte("."))
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Game{ID: "g1", Name: "Poker Night", TargetScore: 500})
	})
	c := New(srv.URL, WithLogger(quiet()))

	g, err := c.CreateGame(context.Background(), models.CreateGameRequest{Name: "Poker Night", Players: []string{"Amy", "Bo"}, TargetScore: 500})
	require.NoError(t, err)
	assert.Equal(t, "g1", g.ID)

	reqs := seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/ping", reqs[0].Path)
	assert.Equal(t, http.MethodPost, reqs[1].Method)
	assert.Equal(t, "csrf-abc", reqs[1].CSRF)
	assert.JSONEq(t, `{"name":"Poker Night","players":["Amy","Bo"],"targetScore":500}`, reqs[1].Body)
}

func TestRoundPaths(t *testing.T) {
	srv, seen := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Game{ID: "g1"})
	})
	c := New(srv.URL, WithLogger(quiet()))
	ctx := context.Background()

	_, err := c.AddRound(ctx, "g1", map[string]int{"p1": 3})
	require.NoError(t, err)
	_, err = c.EditRound(ctx, "g1", "r1", map[string]int{"p1": 4})
	require.NoError(t, err)
	_, err = c.CompleteGame(ctx, "g1")
	require.NoError(t, err)
	require.NoError(t, c.DeleteGame(ctx, "g1"))

	var got []string
	for _, r := range seen() {
		got = append(got, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"GET /ping",
		"POST /games/g1/rounds",
		"PUT /games/g1/rounds/r1",
		"PUT /games/g1/complete",
		"DELETE /games/g1",
	}, got)
}

func TestUnauthorizedHookAndError(t *testing.T) {
	srv, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})
	var hookStatus int
	c := New(srv.URL, WithLogger(quiet()), OnUnauthorized(func(status int) { hookStatus = status }))

	_, err := c.ListGames(context.Background(), models.ListGamesOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, hookStatus)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestServerErrorIsNotUnauthorized(t *testing.T) {
	srv, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db", http.StatusInternalServerError)
	})
	c := New(srv.URL, WithLogger(quiet()))

	_, err := c.GetGame(context.Background(), "g1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}
