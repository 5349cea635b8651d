// Package session holds the editable in-memory rule list behind the form UI:
// per-field edits, re-validation on every change, and the validate-then-save
// flow. Every mutation replaces the whole list rather than editing in place,
// which keeps change detection trivial for the rendering layer.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-delivery-timelines/core"
	"github.com/goliatone/go-delivery-timelines/enrich"
	"github.com/goliatone/go-delivery-timelines/validate"
)

const (
	OutcomeSaved   = "saved"
	OutcomeBlocked = "blocked"
)

const (
	messageSaveSucceeded = "Delivery timelines saved"
	messageSaveBlocked   = "Fix the highlighted fields before saving"
)

// Submitter is the external submission boundary a successful save hands the
// whole rule list to.
type Submitter interface {
	Submit(ctx context.Context, rules []core.Rule) (core.SubmitResult, error)
}

// SaveOutcome reports what a Save attempt did. Action and ID are only set
// when Outcome is OutcomeSaved.
type SaveOutcome struct {
	Outcome string
	Action  string
	ID      string
}

type Controller struct {
	submitter Submitter
	notifier  core.Notifier
	minDays   int

	mu       sync.Mutex
	rules    []core.UIRule
	inFlight bool
}

func NewController(submitter Submitter, notifier core.Notifier, minDays int) *Controller {
	if notifier == nil {
		notifier = core.NopNotifier{}
	}
	if minDays < 0 {
		minDays = 0
	}
	return &Controller{
		submitter: submitter,
		notifier:  notifier,
		minDays:   minDays,
		rules:     []core.UIRule{enrich.NewEmptyUIRule()},
	}
}

// Load seeds the session with enriched rules, replacing any prior state.
func (c *Controller) Load(rules []core.UIRule) {
	if c == nil {
		return
	}
	if len(rules) == 0 {
		rules = []core.UIRule{enrich.NewEmptyUIRule()}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = cloneRules(rules)
}

// Rules returns a copy of the current list in display order.
func (c *Controller) Rules() []core.UIRule {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRules(c.rules)
}

// UpdateField replaces one rule's one field value and re-validates that rule
// only; no other rule is touched.
func (c *Controller) UpdateField(localID, fieldKey, value string) error {
	if !validFieldKey(fieldKey) {
		return core.TimelineError(
			fmt.Sprintf("session: unknown field %q", fieldKey),
			goerrors.CategoryBadInput,
			map[string]any{"field": fieldKey},
		)
	}
	return c.replaceRule(localID, func(rule core.UIRule) core.UIRule {
		switch fieldKey {
		case core.FieldShippingFrom:
			rule.ShippingFrom = value
		case core.FieldShippingTo:
			rule.ShippingTo = value
		case core.FieldDeliveryFrom:
			rule.DeliveryFrom = value
		case core.FieldDeliveryTo:
			rule.DeliveryTo = value
		}
		rule.Errors = validate.Rule(rule.FieldValues(), c.minDays)
		return rule
	})
}

// UpdateCollections replaces one rule's collection list wholesale; the
// picker returns a complete replacement set, not a delta.
func (c *Controller) UpdateCollections(localID string, picked []core.CollectionRef) error {
	return c.replaceRule(localID, func(rule core.UIRule) core.UIRule {
		rule.Collections = append([]core.CollectionRef{}, picked...)
		rule.Errors = validate.Rule(rule.FieldValues(), c.minDays)
		return rule
	})
}

// AddRule appends a freshly initialized empty rule.
func (c *Controller) AddRule() core.UIRule {
	rule := enrich.NewEmptyUIRule()
	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneRules(c.rules)
	next = append(next, rule)
	c.rules = next
	return rule
}

// RemoveRule deletes a rule from the list. No confirmation step;
// irreversible within the session.
func (c *Controller) RemoveRule(localID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]core.UIRule, 0, len(c.rules))
	found := false
	for _, rule := range c.rules {
		if rule.LocalID == localID {
			found = true
			continue
		}
		next = append(next, rule)
	}
	if !found {
		return unknownRuleError(localID)
	}
	c.rules = next
	return nil
}

// Save re-validates every rule and either blocks with fresh error maps on all
// rules (so errors show even on rows the user never touched) or submits the
// whole coerced rule list as one atomic payload. A save already in flight
// blocks further saves until it completes.
func (c *Controller) Save(ctx context.Context) (SaveOutcome, error) {
	if c == nil || c.submitter == nil {
		return SaveOutcome{}, core.TimelineError(
			"session: submitter is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return SaveOutcome{}, core.TimelineError(
			"session: a save is already in flight",
			goerrors.CategoryConflict,
			nil,
		)
	}
	validated := make([]core.UIRule, len(c.rules))
	invalid := false
	for i, rule := range c.rules {
		rule.Errors = validate.Rule(rule.FieldValues(), c.minDays)
		if !validate.Valid(rule.Errors) {
			invalid = true
		}
		validated[i] = rule
	}
	c.rules = validated
	if invalid {
		c.mu.Unlock()
		c.notifier.Notify(ctx, messageSaveBlocked, true)
		return SaveOutcome{Outcome: OutcomeBlocked}, nil
	}
	payload := coerceRules(validated)
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	result, err := c.submitter.Submit(ctx, payload)
	if err != nil {
		return SaveOutcome{}, err
	}
	c.notifier.Notify(ctx, messageSaveSucceeded, false)
	return SaveOutcome{Outcome: OutcomeSaved, Action: result.Action, ID: result.ID}, nil
}

func (c *Controller) replaceRule(localID string, mutate func(core.UIRule) core.UIRule) error {
	if c == nil {
		return core.TimelineError("session: controller is nil", goerrors.CategoryInternal, nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneRules(c.rules)
	for i, rule := range next {
		if rule.LocalID == localID {
			next[i] = mutate(rule)
			c.rules = next
			return nil
		}
	}
	return unknownRuleError(localID)
}

// coerceRules strips session-only state: local ids, error maps, and resolved
// titles. Only identifiers and coerced integers persist.
func coerceRules(rules []core.UIRule) []core.Rule {
	out := make([]core.Rule, 0, len(rules))
	for _, rule := range rules {
		ids := make([]string, 0, len(rule.Collections))
		for _, ref := range rule.Collections {
			ids = append(ids, ref.ID)
		}
		out = append(out, core.Rule{
			Collections:  ids,
			ShippingFrom: mustAtoi(rule.ShippingFrom),
			ShippingTo:   mustAtoi(rule.ShippingTo),
			DeliveryFrom: mustAtoi(rule.DeliveryFrom),
			DeliveryTo:   mustAtoi(rule.DeliveryTo),
		})
	}
	return out
}

// mustAtoi runs only on values the validator already accepted.
func mustAtoi(value string) int {
	parsed, _ := strconv.Atoi(value)
	return parsed
}

func cloneRules(rules []core.UIRule) []core.UIRule {
	out := make([]core.UIRule, len(rules))
	for i, rule := range rules {
		rule.Collections = append([]core.CollectionRef{}, rule.Collections...)
		errs := make(map[string]string, len(rule.Errors))
		for field, message := range rule.Errors {
			errs[field] = message
		}
		rule.Errors = errs
		out[i] = rule
	}
	return out
}

func validFieldKey(fieldKey string) bool {
	for _, field := range core.DayRangeFields {
		if field == fieldKey {
			return true
		}
	}
	return false
}

func unknownRuleError(localID string) error {
	return core.TimelineError(
		fmt.Sprintf("session: no rule with id %q", localID),
		goerrors.CategoryBadInput,
		map[string]any{"local_id": localID},
	)
}
