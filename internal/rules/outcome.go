package rules

import "fmt"

// Outcome is the result of a participant's round.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLose
	OutcomeTie
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeWin:
		return "win"
	case OutcomeLose:
		return "lose"
	case OutcomeTie:
		return "tie"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for o := OutcomeNone; o <= OutcomeTie; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return OutcomeNone, fmt.Errorf("invalid outcome %q", s)
}

// Compare settles a standing player against the dealer. A busted dealer
// loses to every remaining player.
func Compare(dealer, player int) Outcome {
	switch {
	case IsBust(dealer):
		return OutcomeWin
	case dealer > player:
		return OutcomeLose
	case dealer < player:
		return OutcomeWin
	default:
		return OutcomeTie
	}
}
