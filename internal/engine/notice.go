package engine

import (
	"fmt"

	"github.com/abhisek/focuscycle/internal/backend"
)

// NoticeLevel ranks a user-visible notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarn
	NoticeError
)

// Notice is a message for the user. Recoverable failures surface here
// instead of being retried in the background.
type Notice struct {
	Level NoticeLevel
	Text  string

	// Retryable is set when repeating the action may succeed.
	Retryable bool
}

func failure(what string, err error) Notice {
	return Notice{
		Level:     NoticeError,
		Text:      fmt.Sprintf("%s: %v", what, err),
		Retryable: backend.IsTransient(err),
	}
}
