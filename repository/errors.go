package repository

import (
	"errors"
	"strings"

	"github.com/goliatone/go-delivery-timelines/core"
)

var ErrMutationFailed = errors.New("repository: record mutation failed")

// MutationError carries the store's user-error list from a failed create,
// update, or delete. The failing branch never falls back to another one.
type MutationError struct {
	Op         string
	UserErrors []core.UserError
}

func (e *MutationError) Error() string {
	if e == nil {
		return ErrMutationFailed.Error()
	}
	parts := []string{ErrMutationFailed.Error()}
	if strings.TrimSpace(e.Op) != "" {
		parts = append(parts, "op="+strings.TrimSpace(e.Op))
	}
	if joined := core.JoinUserErrors(e.UserErrors); joined != "" {
		parts = append(parts, joined)
	}
	return strings.Join(parts, ": ")
}

func (e *MutationError) Unwrap() error {
	return ErrMutationFailed
}
