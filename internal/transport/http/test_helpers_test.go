package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/auth"
	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/config"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/feed"
	"github.com/vovakirdan/wirechat-blackjack/internal/proto"
	"github.com/vovakirdan/wirechat-blackjack/internal/store/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stackedDecks deals each created session from the next script.
func stackedDecks(t *testing.T, scripts ...string) func() (card.Drawer, error) {
	t.Helper()
	var mu sync.Mutex
	decks := make([][]card.Card, 0, len(scripts))
	for _, script := range scripts {
		cards, err := card.ParseCodes(strings.Fields(script))
		if err != nil {
			t.Fatalf("parse script %q: %v", script, err)
		}
		decks = append(decks, cards)
	}
	return func() (card.Drawer, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(decks) == 0 {
			return nil, errors.New("no deck scripted")
		}
		d := &stackedDeck{cards: decks[0]}
		decks = decks[1:]
		return d, nil
	}
}

type stackedDeck struct {
	cards []card.Card
}

func (d *stackedDeck) Draw(n int) ([]card.Card, error) {
	if len(d.cards) < n {
		return nil, errors.New("stacked deck exhausted")
	}
	out := d.cards[:n:n]
	d.cards = d.cards[n:]
	return out, nil
}

type testServer struct {
	*httptest.Server
	hub    *core.Hub
	feed   *feed.Feed
	auth   *auth.Service
	rounds *sqlite.SQLiteStore
	cfg    config.Config
}

func newTestServer(t *testing.T, scripts ...string) *testServer {
	t.Helper()

	disabledLogger := zerolog.Nop()
	cfg := config.Default()
	cfg.RateLimitPerMinute = 0

	rounds, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = rounds.Close() })

	fd := feed.New(&disabledLogger)
	hub := core.NewHub(core.NewRegistry(), fd,
		core.WithConfig(cfg.Game.Core()),
		core.WithRecorder(rounds),
		core.WithDeckFactory(stackedDecks(t, scripts...)),
	)
	t.Cleanup(hub.Close)

	authService := auth.NewService(&auth.JWTConfig{
		Secret: []byte("test-secret"),
		Issuer: "test",
		TTL:    time.Hour,
	})

	router := NewRouter(Deps{Hub: hub, Feed: fd, Auth: authService, Rounds: rounds}, &cfg, &disabledLogger)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, hub: hub, feed: fd, auth: authService, rounds: rounds, cfg: cfg}
}

func (s *testServer) guest(t *testing.T, name string) AuthResponse {
	t.Helper()
	var resp AuthResponse
	status := s.doJSON(t, http.MethodPost, "/api/guest", "", map[string]string{"name": name}, &resp)
	if status != http.StatusOK {
		t.Fatalf("guest login: status %d", status)
	}
	return resp
}

// doJSON performs a request and decodes the body into out when out is not nil.
func (s *testServer) doJSON(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (s *testServer) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(s.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

type rawOutbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readUntil reads outbound frames until one matches typ and event.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ, event string) rawOutbound {
	t.Helper()
	for {
		var out rawOutbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			t.Fatalf("waiting for %s/%s: %v", typ, event, err)
		}
		if out.Type == typ && out.Event == event {
			return out
		}
	}
}
