package core

import (
	"context"
	"encoding/json"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// StoreClient is the generic query/mutation surface of the host object store.
// Execute returns the raw data payload of a successful call; transport
// failures and store-reported top-level errors come back as errors, never as
// empty data, so callers can tell "nothing found" from "call failed".
type StoreClient interface {
	Execute(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// UserError is a store-reported, user-facing validation error attached to a
// mutation response. Field is the store's path to the offending input.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// JoinUserErrors flattens a user-error list into one display string.
func JoinUserErrors(errs []UserError) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, ue := range errs {
		message := strings.TrimSpace(ue.Message)
		if message == "" {
			continue
		}
		if len(ue.Field) > 0 {
			message = strings.Join(ue.Field, ".") + ": " + message
		}
		parts = append(parts, message)
	}
	return strings.Join(parts, "; ")
}

// Notifier is the toast/notification sink exposed by the host UI shell.
type Notifier interface {
	Notify(ctx context.Context, message string, isError bool)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, bool) {}

// SubmitResult reports which persistence branch a save took.
type SubmitResult struct {
	Action string
	ID     string
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider
