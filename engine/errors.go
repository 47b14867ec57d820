package engine

import "errors"

// RuleError is a rejected action. Code is the stable identifier that crosses
// the wire; rejected actions never mutate game state.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// Validation errors — the action was understood but is illegal right now.
var (
	ErrNotYourTurn   = &RuleError{Code: "NOT_YOUR_TURN", Message: "it is not your turn"}
	ErrInvalidPlay   = &RuleError{Code: "INVALID_PLAY", Message: "card does not match the active color or value"}
	ErrCardNotInHand = &RuleError{Code: "CARD_NOT_IN_HAND", Message: "card is not in your hand"}
	ErrColorRequired = &RuleError{Code: "COLOR_REQUIRED", Message: "a wild card requires a chosen color"}
	ErrColorNotWild  = &RuleError{Code: "CANNOT_CHOOSE_COLOR_FOR_NON_WILD", Message: "only wild cards take a chosen color"}
	ErrNoUnoWindow   = &RuleError{Code: "NO_UNO_WINDOW", Message: "no uno window is open"}
	ErrNotYourWindow = &RuleError{Code: "NOT_YOUR_WINDOW", Message: "the uno window belongs to another player"}
	ErrAlreadyCalled = &RuleError{Code: "ALREADY_CALLED", Message: "uno has already been called"}
	ErrCantCatchSelf = &RuleError{Code: "CANT_CATCH_SELF", Message: "you cannot catch your own uno"}
	ErrDeckEmpty     = &RuleError{Code: "DECK_EMPTY", Message: "the draw pile is empty"}
	ErrTooFewPlayers = &RuleError{Code: "TOO_FEW_PLAYERS", Message: "at least two active players are required"}
	ErrUnknownPlayer = &RuleError{Code: "UNKNOWN_PLAYER", Message: "player is not seated in this room"}
)

// Phase errors — short-circuit before any mutation.
var (
	ErrGameNotPlaying = &RuleError{Code: "GAME_NOT_PLAYING", Message: "the game is not in the playing phase"}
	ErrGameNotLobby   = &RuleError{Code: "GAME_ALREADY_STARTED", Message: "the game has already started"}
)

// ErrorCode extracts the wire code from an error, or "INTERNAL" for errors
// that did not originate in the rules engine.
func ErrorCode(err error) string {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code
	}
	return "INTERNAL"
}
