package schema

import (
	"errors"
	"strings"

	"github.com/goliatone/go-delivery-timelines/core"
)

var ErrProvisionFailed = errors.New("schema: record definition provisioning failed")

// ProvisionError carries the store's raw user-error list from a failed
// definition create. Fatal; never retried.
type ProvisionError struct {
	RecordType string
	UserErrors []core.UserError
}

func (e *ProvisionError) Error() string {
	if e == nil {
		return ErrProvisionFailed.Error()
	}
	parts := []string{ErrProvisionFailed.Error()}
	if strings.TrimSpace(e.RecordType) != "" {
		parts = append(parts, "type="+strings.TrimSpace(e.RecordType))
	}
	if joined := core.JoinUserErrors(e.UserErrors); joined != "" {
		parts = append(parts, joined)
	}
	return strings.Join(parts, ": ")
}

func (e *ProvisionError) Unwrap() error {
	return ErrProvisionFailed
}
