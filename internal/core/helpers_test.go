package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
)

var errScriptExhausted = errors.New("script exhausted")

// scriptDeck deals cards in a fixed order.
type scriptDeck struct {
	cards []card.Card
}

func (d *scriptDeck) Draw(n int) ([]card.Card, error) {
	if len(d.cards) < n {
		return nil, errScriptExhausted
	}
	out := append([]card.Card(nil), d.cards[:n]...)
	d.cards = d.cards[n:]
	return out, nil
}

// scriptedDecks returns a factory handing out one script per created session.
// The first two cards of each script are the dealer's.
func scriptedDecks(t *testing.T, scripts ...[]string) func() (card.Drawer, error) {
	t.Helper()
	var mu sync.Mutex
	decks := make([]*scriptDeck, 0, len(scripts))
	for _, script := range scripts {
		d := &scriptDeck{}
		for _, code := range script {
			c, err := card.Parse(code)
			if err != nil {
				t.Fatalf("parse %q: %v", code, err)
			}
			d.cards = append(d.cards, c)
		}
		decks = append(decks, d)
	}
	return func() (card.Drawer, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(decks) == 0 {
			return nil, errScriptExhausted
		}
		d := decks[0]
		decks = decks[1:]
		return d, nil
	}
}

type fakeDisplay struct {
	mu      sync.Mutex
	next    int
	views   map[string][]View
	revoked map[string]int
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{
		views:   make(map[string][]View),
		revoked: make(map[string]int),
	}
}

func (d *fakeDisplay) Render(_ context.Context, channel string, view View) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	id := fmt.Sprintf("msg-%d", d.next)
	d.views[id] = append(d.views[id], view)
	return Handle{Channel: channel, MessageID: id}, nil
}

func (d *fakeDisplay) Update(_ context.Context, handle Handle, view View) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views[handle.MessageID] = append(d.views[handle.MessageID], view)
	return nil
}

func (d *fakeDisplay) RevokeInput(_ context.Context, handle Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[handle.MessageID]++
	return nil
}

func (d *fakeDisplay) last(t *testing.T, messageID string) View {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	views := d.views[messageID]
	if len(views) == 0 {
		t.Fatalf("no views for %s", messageID)
	}
	return views[len(views)-1]
}

func (d *fakeDisplay) revokedCount(messageID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revoked[messageID]
}

type fakeRecorder struct {
	mu     sync.Mutex
	rounds []*Round
}

func (r *fakeRecorder) RecordRound(_ context.Context, round *Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, round)
	return nil
}

func (r *fakeRecorder) all() []*Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Round(nil), r.rounds...)
}

func (r *fakeRecorder) only(t *testing.T) *Round {
	t.Helper()
	rounds := r.all()
	if len(rounds) != 1 {
		t.Fatalf("expected exactly one recorded round, got %d", len(rounds))
	}
	return rounds[0]
}

type testHub struct {
	*Hub
	registry *Registry
	display  *fakeDisplay
	recorder *fakeRecorder
}

func newTestHub(t *testing.T, cfg Config, scripts ...[]string) *testHub {
	t.Helper()
	registry := NewRegistry()
	display := newFakeDisplay()
	recorder := &fakeRecorder{}
	hub := NewHub(registry, display,
		WithConfig(cfg),
		WithRecorder(recorder),
		WithDeckFactory(scriptedDecks(t, scripts...)),
	)
	t.Cleanup(hub.Close)
	return &testHub{Hub: hub, registry: registry, display: display, recorder: recorder}
}

func (h *testHub) mustJoin(t *testing.T, channel, userID string) Handle {
	t.Helper()
	handle, err := h.JoinDefault(context.Background(), channel, userID)
	if err != nil {
		t.Fatalf("join %s/%s: %v", channel, userID, err)
	}
	return handle
}

func (h *testHub) mustDispatch(t *testing.T, handle Handle, userID string, kind ActionKind) {
	t.Helper()
	err := h.Dispatch(context.Background(), ActionEvent{MessageID: handle.MessageID, UserID: userID, Kind: kind})
	if err != nil {
		t.Fatalf("dispatch %s for %s: %v", kind, userID, err)
	}
}

func (h *testHub) mustSnapshot(t *testing.T, channel string) SessionSnapshot {
	t.Helper()
	snap, err := h.Snapshot(context.Background(), channel)
	if err != nil {
		t.Fatalf("snapshot %s: %v", channel, err)
	}
	return snap
}

func findResult(t *testing.T, round *Round, userID string) Result {
	t.Helper()
	for _, r := range round.Results {
		if r.UserID == userID {
			return r
		}
	}
	t.Fatalf("no result for %s in round %+v", userID, round)
	return Result{}
}
