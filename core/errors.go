package core

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TimelineErrorBadInput         = "TIMELINE_BAD_INPUT"
	TimelineErrorNotFound         = "TIMELINE_NOT_FOUND"
	TimelineErrorSchemaProvision  = "TIMELINE_SCHEMA_PROVISION"
	TimelineErrorStoreMutation    = "TIMELINE_STORE_MUTATION"
	TimelineErrorStoreUnavailable = "TIMELINE_STORE_UNAVAILABLE"
	TimelineErrorConflict         = "TIMELINE_CONFLICT"
	TimelineErrorInternal         = "TIMELINE_INTERNAL_ERROR"
)

// TimelineError builds the module's standard error envelope: category,
// HTTP-equivalent code, text code, optional metadata.
func TimelineError(message string, category goerrors.Category, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(timelineHTTPStatus(category)).
		WithTextCode(timelineTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// TimelineWrapError wraps a source error in the standard envelope.
func TimelineWrapError(source error, category goerrors.Category, message string, metadata map[string]any) error {
	if source == nil {
		return TimelineError(message, category, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(timelineHTTPStatus(category)).
		WithTextCode(timelineTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func timelineTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return TimelineErrorBadInput
	case goerrors.CategoryNotFound:
		return TimelineErrorNotFound
	case goerrors.CategoryOperation:
		return TimelineErrorStoreMutation
	case goerrors.CategoryExternal:
		return TimelineErrorStoreUnavailable
	case goerrors.CategoryConflict:
		return TimelineErrorConflict
	default:
		return TimelineErrorInternal
	}
}

func timelineHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryOperation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
