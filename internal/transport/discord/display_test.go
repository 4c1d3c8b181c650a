package discord

import (
	"context"
	"strings"
	"testing"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

func cards(codes ...string) []card.Card {
	out := make([]card.Card, 0, len(codes))
	for _, c := range codes {
		out = append(out, card.MustParse(c))
	}
	return out
}

func TestDisplayRenderAddsReactions(t *testing.T) {
	api := &fakeSession{}
	d := newDisplay(api, testEmojis, nil)

	view := core.View{
		UserID:       "alice",
		Bet:          10,
		Cards:        cards("Ts", "5h"),
		Value:        15,
		DealerCards:  cards("Tc"),
		DealerValue:  10,
		DealerHidden: true,
	}
	handle, err := d.Render(context.Background(), "general", view)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if handle.Channel != "general" || handle.MessageID != "m1" {
		t.Fatalf("unexpected handle %+v", handle)
	}

	sent := api.byMethod("send")
	if len(sent) != 1 {
		t.Fatalf("expected one embed, got %d", len(sent))
	}
	embed := sent[0].embed
	if embed.Title != "Blackjack" || !strings.Contains(embed.Description, "<@alice>") {
		t.Fatalf("unexpected embed header: %+v", embed)
	}
	if !strings.Contains(embed.Fields[1].Value, "??") {
		t.Fatalf("dealer hole card not hidden: %q", embed.Fields[1].Value)
	}
	if embed.Footer == nil {
		t.Fatalf("active turn should list the controls")
	}

	reacts := api.byMethod("react")
	if len(reacts) != 3 {
		t.Fatalf("expected three reactions, got %d", len(reacts))
	}
	for i, want := range []string{testEmojis.Hit, testEmojis.Stay, testEmojis.Double} {
		if reacts[i].emoji != want || reacts[i].message != "m1" {
			t.Fatalf("reaction %d = %+v, want %s", i, reacts[i], want)
		}
	}
}

func TestDisplayRenderSurvivesReactionFailure(t *testing.T) {
	api := &fakeSession{failAdd: true}
	d := newDisplay(api, testEmojis, nil)

	if _, err := d.Render(context.Background(), "general", core.View{UserID: "alice", Bet: 10}); err != nil {
		t.Fatalf("reaction failures should not fail render: %v", err)
	}
	if n := len(api.byMethod("react")); n != 3 {
		t.Fatalf("expected every reaction attempted, got %d", n)
	}
}

func TestDisplayUpdateAndRevoke(t *testing.T) {
	api := &fakeSession{}
	d := newDisplay(api, testEmojis, nil)
	handle := core.Handle{Channel: "general", MessageID: "m9"}

	view := core.View{UserID: "alice", Status: core.StatusStayed, Outcome: rules.OutcomeWin, Cards: cards("Ts", "8h"), Value: 18}
	if err := d.Update(context.Background(), handle, view); err != nil {
		t.Fatalf("update: %v", err)
	}
	edits := api.byMethod("edit")
	if len(edits) != 1 || edits[0].message != "m9" {
		t.Fatalf("unexpected edits: %+v", edits)
	}
	if edits[0].embed.Title != "You win!" || edits[0].embed.Color != colorWin || edits[0].embed.Footer != nil {
		t.Fatalf("unexpected finished embed: %+v", edits[0].embed)
	}

	if err := d.RevokeInput(context.Background(), handle); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if cleared := api.byMethod("clear"); len(cleared) != 1 || cleared[0].message != "m9" {
		t.Fatalf("unexpected clears: %+v", cleared)
	}
}

func TestEmbedColor(t *testing.T) {
	tests := []struct {
		name string
		view core.View
		want int
	}{
		{"playing", core.View{}, colorPlaying},
		{"blackjack", core.View{Status: core.StatusBlackjack}, colorWin},
		{"busted", core.View{Status: core.StatusBusted}, colorLose},
		{"lost", core.View{Status: core.StatusStayed, Outcome: rules.OutcomeLose}, colorLose},
		{"push", core.View{Status: core.StatusStayed, Outcome: rules.OutcomeTie}, colorPush},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := embedColor(tt.view); got != tt.want {
				t.Fatalf("embedColor = %#x, want %#x", got, tt.want)
			}
		})
	}
}
