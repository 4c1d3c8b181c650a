package core

import (
	"fmt"
	"strings"
)

// ActionKind describes what a participant wants to do on their turn.
type ActionKind int

const (
	// ActionHit draws one card.
	ActionHit ActionKind = iota
	// ActionStay ends the turn.
	ActionStay
	// ActionDouble doubles the bet, draws one card and ends the turn.
	ActionDouble
)

func (k ActionKind) String() string {
	switch k {
	case ActionHit:
		return "hit"
	case ActionStay:
		return "stay"
	case ActionDouble:
		return "double"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k ActionKind) Valid() bool {
	return k >= ActionHit && k <= ActionDouble
}

// ParseActionKind maps a transport-level action name to its kind.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hit", "h":
		return ActionHit, nil
	case "stay", "stand", "s":
		return ActionStay, nil
	case "double", "d":
		return ActionDouble, nil
	default:
		return 0, fmt.Errorf("%w: unknown action %q", ErrBadRequest, s)
	}
}

// ActionEvent is a request by UserID to act on the turn displayed by MessageID.
// It carries no game state and is resolved against the registry.
type ActionEvent struct {
	MessageID string
	UserID    string
	Kind      ActionKind
}
