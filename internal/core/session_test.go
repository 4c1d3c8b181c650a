package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

func TestNaturalOnJoinEndsRoundImmediately(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Ts", "7h", "As", "Kd"})

	handle := h.mustJoin(t, "general", "alice")

	if h.registry.Len() != 0 || h.registry.Routes() != 0 {
		t.Fatalf("session should be discarded, sessions=%d routes=%d", h.registry.Len(), h.registry.Routes())
	}
	view := h.display.last(t, handle.MessageID)
	if view.Status != StatusBlackjack || view.Outcome != rules.OutcomeWin {
		t.Fatalf("expected blackjack win view, got %+v", view)
	}
	if h.display.revokedCount(handle.MessageID) == 0 {
		t.Fatalf("input was not revoked")
	}

	round := h.recorder.only(t)
	if round.DealerPlayed {
		t.Fatalf("dealer should not play for an empty session")
	}
	res := findResult(t, round, "alice")
	if res.Status != StatusBlackjack || res.Value != 21 {
		t.Fatalf("unexpected result: %+v", res)
	}

	err := h.Dispatch(context.Background(), ActionEvent{MessageID: handle.MessageID, UserID: "alice", Kind: ActionHit})
	if !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("expected stale event after round end, got %v", err)
	}
}

func TestStayAtEighteenLosesToDealerNineteen(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "6d", "Ts", "8h", "3c"})

	handle := h.mustJoin(t, "general", "alice")
	h.mustDispatch(t, handle, "alice", ActionStay)

	round := h.recorder.only(t)
	if !round.DealerPlayed || round.DealerValue != 19 {
		t.Fatalf("expected dealer to draw to 19, got %d (%v)", round.DealerValue, round.DealerCards)
	}
	res := findResult(t, round, "alice")
	if res.Outcome != rules.OutcomeLose || res.Value != 18 || res.Status != StatusStayed {
		t.Fatalf("unexpected result: %+v", res)
	}

	view := h.display.last(t, handle.MessageID)
	if view.Outcome != rules.OutcomeLose || view.DealerHidden || view.DealerValue != 19 {
		t.Fatalf("final view should reveal the dealer: %+v", view)
	}
	if h.registry.Len() != 0 {
		t.Fatalf("session should be discarded")
	}
}

func TestDoubleAtTenDrawsOnceAndStays(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "6s", "4h", "9s", "5c", "Kd"})

	handle := h.mustJoin(t, "general", "alice")
	// bob keeps the round open so alice's final state is observable.
	h.mustJoin(t, "general", "bob")

	h.mustDispatch(t, handle, "alice", ActionDouble)

	snap := h.mustSnapshot(t, "general")
	var alice PlayerSnapshot
	for _, p := range snap.Participants {
		if p.UserID == "alice" {
			alice = p
		}
	}
	if alice.Status != StatusStayed || alice.Value != 20 || alice.Bet != 20 || len(alice.Cards) != 3 {
		t.Fatalf("unexpected state after double: %+v", alice)
	}

	err := h.Dispatch(context.Background(), ActionEvent{MessageID: handle.MessageID, UserID: "alice", Kind: ActionHit})
	if !errors.Is(err, ErrStaleEvent) {
		t.Fatalf("doubled hand accepted another hit: %v", err)
	}
}

func TestDoubleSettlesWithDoubledBet(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "6s", "4h", "Kd"})

	handle := h.mustJoin(t, "general", "alice")
	h.mustDispatch(t, handle, "alice", ActionDouble)

	res := findResult(t, h.recorder.only(t), "alice")
	if res.Bet != 20 || !res.Doubled || res.Value != 20 || res.Status != StatusStayed || res.Outcome != rules.OutcomeWin {
		t.Fatalf("unexpected double result: %+v", res)
	}
}

func TestDoubleToTwentyOneIsBlackjack(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "5s", "6h", "Th"})

	handle := h.mustJoin(t, "general", "alice")
	h.mustDispatch(t, handle, "alice", ActionDouble)

	round := h.recorder.only(t)
	res := findResult(t, round, "alice")
	if res.Status != StatusBlackjack || res.Bet != 20 {
		t.Fatalf("expected blackjack with doubled bet, got %+v", res)
	}
	if round.DealerPlayed {
		t.Fatalf("dealer should be skipped once nobody remains")
	}
}

func TestDoubleCanBust(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "Ts", "5h", "Kd"})

	handle := h.mustJoin(t, "general", "alice")
	h.mustDispatch(t, handle, "alice", ActionDouble)

	res := findResult(t, h.recorder.only(t), "alice")
	if res.Status != StatusBusted || res.Outcome != rules.OutcomeLose || res.Value != 25 {
		t.Fatalf("expected bust, got %+v", res)
	}
}

func TestConcurrentBustsSkipDealer(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "Ts", "6h", "Kd", "5c", "Qh", "Jc"})

	alice := h.mustJoin(t, "general", "alice")
	bob := h.mustJoin(t, "general", "bob")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, p := range []struct {
		handle Handle
		user   string
	}{{alice, "alice"}, {bob, "bob"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- h.Dispatch(context.Background(), ActionEvent{MessageID: p.handle.MessageID, UserID: p.user, Kind: ActionHit})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("hit failed: %v", err)
		}
	}

	round := h.recorder.only(t)
	if round.DealerPlayed {
		t.Fatalf("dealer phase should be skipped when everyone busted")
	}
	for _, user := range []string{"alice", "bob"} {
		if res := findResult(t, round, user); res.Status != StatusBusted {
			t.Fatalf("%s should be busted: %+v", user, res)
		}
	}
	if h.registry.Len() != 0 || h.registry.Routes() != 0 {
		t.Fatalf("session not discarded")
	}
}

func TestActionOnFinishedTurnDoesNotMutate(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "Ts", "8h", "9s", "5h", "2c", "3c"})

	alice := h.mustJoin(t, "general", "alice")
	h.mustJoin(t, "general", "bob")
	h.mustDispatch(t, alice, "alice", ActionStay)

	for _, kind := range []ActionKind{ActionHit, ActionDouble, ActionStay} {
		err := h.Dispatch(context.Background(), ActionEvent{MessageID: alice.MessageID, UserID: "alice", Kind: kind})
		if !errors.Is(err, ErrStaleEvent) {
			t.Fatalf("%s on stayed player: expected stale, got %v", kind, err)
		}
	}

	snap := h.mustSnapshot(t, "general")
	p := snap.Participants[0]
	if p.UserID != "alice" || len(p.Cards) != 2 || p.Bet != 10 || p.Status != StatusStayed {
		t.Fatalf("stayed player was mutated: %+v", p)
	}
}

func TestHitToTwentyOneRemovesOnlyThatPlayer(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "Ts", "5h", "9s", "5c", "6d"})

	alice := h.mustJoin(t, "general", "alice")
	h.mustJoin(t, "general", "bob")
	h.mustDispatch(t, alice, "alice", ActionHit)

	snap := h.mustSnapshot(t, "general")
	if len(snap.Participants) != 1 || snap.Participants[0].UserID != "bob" {
		t.Fatalf("expected only bob to remain: %+v", snap.Participants)
	}
	if view := h.display.last(t, alice.MessageID); view.Status != StatusBlackjack {
		t.Fatalf("alice should be blackjack: %+v", view)
	}
	if len(h.recorder.all()) != 0 {
		t.Fatalf("round should still be open")
	}
}

func TestDealerBustPaysEveryStandingPlayer(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "6d", "Ts", "2h", "9s", "8c", "Kh"})

	alice := h.mustJoin(t, "general", "alice")
	bob := h.mustJoin(t, "general", "bob")
	h.mustDispatch(t, alice, "alice", ActionStay)
	h.mustDispatch(t, bob, "bob", ActionStay)

	round := h.recorder.only(t)
	if round.DealerValue != 26 {
		t.Fatalf("expected dealer bust at 26, got %d", round.DealerValue)
	}
	for _, user := range []string{"alice", "bob"} {
		if res := findResult(t, round, user); res.Outcome != rules.OutcomeWin {
			t.Fatalf("%s should win against a busted dealer: %+v", user, res)
		}
	}
}

func TestTieIsPush(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "8d", "Ts", "8h"})

	handle := h.mustJoin(t, "general", "alice")
	h.mustDispatch(t, handle, "alice", ActionStay)

	if res := findResult(t, h.recorder.only(t), "alice"); res.Outcome != rules.OutcomeTie {
		t.Fatalf("expected tie, got %+v", res)
	}
}

func TestStayShowsWaitingAndRevokesInput(t *testing.T) {
	h := newTestHub(t, DefaultConfig(), []string{"Tc", "7d", "Ts", "8h", "9s", "5h"})

	alice := h.mustJoin(t, "general", "alice")
	h.mustJoin(t, "general", "bob")
	h.mustDispatch(t, alice, "alice", ActionStay)

	view := h.display.last(t, alice.MessageID)
	if !view.Waiting || !view.DealerHidden || len(view.DealerCards) != 1 {
		t.Fatalf("expected waiting view with hidden dealer: %+v", view)
	}
	if h.display.revokedCount(alice.MessageID) != 1 {
		t.Fatalf("expected input revoked once")
	}
	if h.registry.Routes() != 1 {
		t.Fatalf("only bob should stay routable, routes=%d", h.registry.Routes())
	}

	bob := h.mustSnapshot(t, "general").Participants[1]
	h.mustDispatch(t, Handle{Channel: "general", MessageID: bob.MessageID}, "bob", ActionStay)
	if h.display.revokedCount(alice.MessageID) != 1 {
		t.Fatalf("settlement revoked a stayed turn again")
	}
}
