package generator

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBudgetExceeded is returned when the daily or monthly spend limit has
// been reached.
var ErrBudgetExceeded = errors.New("generator: cost limit reached")

// ErrSourceLength indicates the source text has too few or too many words.
type ErrSourceLength struct {
	Words int
	Msg   string
}

func (e *ErrSourceLength) Error() string { return e.Msg }

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("generator rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned content that could not be
// turned into flashcards.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid generator response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generator provider unavailable: %v", e.Err)
	}
	return "generator provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }
