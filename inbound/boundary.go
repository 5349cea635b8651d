// Package inbound is the request/response boundary between the host UI shell
// and the timeline core: one handler for loading form data, one for
// submitting it. Store-layer errors are caught exactly once here, logged,
// and converted into structured failure responses.
package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-delivery-timelines/core"
	"github.com/goliatone/go-delivery-timelines/enrich"
	"github.com/goliatone/go-delivery-timelines/repository"
	"github.com/goliatone/go-delivery-timelines/schema"
)

type LoadResult struct {
	InitialRules []core.UIRule `json:"initialRules"`
}

// SubmitRequest carries the JSON-encoded rule array posted by the form.
type SubmitRequest struct {
	Rules string `json:"rules"`
}

type SubmitResult struct {
	OK         bool   `json:"ok"`
	Action     string `json:"action,omitempty"`
	ID         string `json:"id,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"-"`
}

// Handler wires the provisioner, repository, and enricher behind the two
// boundary operations.
type Handler struct {
	provisioner *schema.Provisioner
	repo        *repository.Repository
	enricher    *enrich.Enricher
	notifier    core.Notifier
	logger      core.Logger
}

func NewHandler(
	provisioner *schema.Provisioner,
	repo *repository.Repository,
	enricher *enrich.Enricher,
	notifier core.Notifier,
	logger core.Logger,
) *Handler {
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	return &Handler{
		provisioner: provisioner,
		repo:        repo,
		enricher:    enricher,
		notifier:    notifier,
		logger:      glog.Ensure(logger),
	}
}

// HandleLoad ensures the schema exists, loads the singleton record, and
// enriches it into form-ready rules. A store that was never written to still
// yields one empty rule.
func (h *Handler) HandleLoad(ctx context.Context) (LoadResult, error) {
	if h == nil || h.repo == nil || h.enricher == nil {
		return LoadResult{}, core.TimelineError(
			"inbound: handler is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}
	if h.provisioner != nil {
		if err := h.provisioner.Ensure(ctx); err != nil {
			h.logger.Error("schema provisioning failed", "error", err)
			return LoadResult{}, err
		}
	}
	rules, err := h.repo.Load(ctx)
	if err != nil {
		h.logger.Error("timeline load failed", "error", err)
		return LoadResult{}, err
	}
	uiRules, err := h.enricher.Enrich(ctx, rules)
	if err != nil {
		h.logger.Error("timeline enrichment failed", "error", err)
		return LoadResult{}, err
	}
	return LoadResult{InitialRules: uiRules}, nil
}

// HandleSubmit decodes the posted rule array, ensures the schema, and saves.
// Store-layer failures come back as a structured failure result, never as a
// silent success and never re-thrown past this point.
func (h *Handler) HandleSubmit(ctx context.Context, req SubmitRequest) SubmitResult {
	if h == nil || h.repo == nil {
		return SubmitResult{
			OK:         false,
			Error:      "timeline handler is not configured",
			StatusCode: http.StatusInternalServerError,
		}
	}

	payload := strings.TrimSpace(req.Rules)
	if payload == "" {
		return h.failSubmit(ctx, "rules payload is required", http.StatusBadRequest, nil)
	}
	var rules []core.Rule
	if err := json.Unmarshal([]byte(payload), &rules); err != nil {
		return h.failSubmit(ctx, "rules payload is not valid JSON", http.StatusBadRequest, err)
	}

	if h.provisioner != nil {
		if err := h.provisioner.Ensure(ctx); err != nil {
			return h.failSubmit(ctx, "schema provisioning failed", http.StatusInternalServerError, err)
		}
	}

	result, err := h.repo.Save(ctx, rules)
	if err != nil {
		return h.failSubmit(ctx, "saving delivery timelines failed", http.StatusInternalServerError, err)
	}

	h.logger.Info("timeline rules saved", "action", result.Action, "record_id", result.ID, "rule_count", len(rules))
	h.notifier.Notify(ctx, "Delivery timelines saved", false)
	return SubmitResult{
		OK:         true,
		Action:     result.Action,
		ID:         result.ID,
		StatusCode: http.StatusOK,
	}
}

// Submit adapts HandleSubmit to the session controller's Submitter contract.
func (h *Handler) Submit(ctx context.Context, rules []core.Rule) (core.SubmitResult, error) {
	encoded, err := json.Marshal(rules)
	if err != nil {
		return core.SubmitResult{}, core.TimelineWrapError(
			err,
			goerrors.CategoryBadInput,
			"inbound: encode submit payload",
			map[string]any{"rule_count": len(rules)},
		)
	}
	result := h.HandleSubmit(ctx, SubmitRequest{Rules: string(encoded)})
	if !result.OK {
		return core.SubmitResult{}, core.TimelineError(
			"inbound: submit failed: "+result.Error,
			goerrors.CategoryExternal,
			map[string]any{"status_code": result.StatusCode},
		)
	}
	return core.SubmitResult{Action: result.Action, ID: result.ID}, nil
}

func (h *Handler) failSubmit(ctx context.Context, message string, status int, cause error) SubmitResult {
	if cause != nil {
		h.logger.Error("timeline submit failed", "error", cause, "reason", message)
		if detail := strings.TrimSpace(cause.Error()); detail != "" {
			message = message + ": " + detail
		}
	} else {
		h.logger.Error("timeline submit rejected", "reason", message)
	}
	h.notifier.Notify(ctx, message, true)
	return SubmitResult{OK: false, Error: message, StatusCode: status}
}
