package battle

import "errors"

var (
	// ErrInvalidPlayRequest rejects a play that cannot start or resolve now:
	// the card is not in hand, it is not that side's turn, another play is
	// in flight or the battle is over. State is left unchanged.
	ErrInvalidPlayRequest = errors.New("cannot play now")

	// ErrMalformedAnswer rejects an empty or unreadable answer. The play
	// stays open and its countdown keeps running.
	ErrMalformedAnswer = errors.New("malformed answer")

	// ErrTimeoutExpired is returned for an answer to a play that its
	// countdown already resolved as incorrect.
	ErrTimeoutExpired = errors.New("answer time expired")

	// ErrBattleNotFound is returned by Manager for unknown battle ids.
	ErrBattleNotFound = errors.New("battle not found")
)
