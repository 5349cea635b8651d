// Package enrich turns persisted rules into display-ready form-session rules
// by resolving collection ids to titles with one batch lookup.
package enrich

import (
	"context"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-delivery-timelines/core"
)

// CollectionResolver performs the batch id-to-title lookup. Ids unknown to
// the store are absent from the returned map.
type CollectionResolver interface {
	ResolveTitles(ctx context.Context, ids []string) (map[string]string, error)
}

type Enricher struct {
	resolver CollectionResolver
}

func New(resolver CollectionResolver) *Enricher {
	return &Enricher{resolver: resolver}
}

// Enrich maps rules to UI rules: numeric fields become strings, collection
// ids become {id, title} pairs, and every rule gets a fresh session-local id.
// A nil or empty input yields exactly one empty UI rule so the form never
// renders zero rows.
func (e *Enricher) Enrich(ctx context.Context, rules []core.Rule) ([]core.UIRule, error) {
	if e == nil {
		return nil, core.TimelineError(
			"enrich: enricher is not configured",
			goerrors.CategoryInternal,
			nil,
		)
	}
	if len(rules) == 0 {
		return []core.UIRule{NewEmptyUIRule()}, nil
	}

	titles, err := e.resolveTitles(ctx, rules)
	if err != nil {
		return nil, err
	}

	out := make([]core.UIRule, 0, len(rules))
	for _, rule := range rules {
		refs := make([]core.CollectionRef, 0, len(rule.Collections))
		for _, id := range rule.Collections {
			title, ok := titles[id]
			if !ok || strings.TrimSpace(title) == "" {
				title = FallbackTitle(id)
			}
			refs = append(refs, core.CollectionRef{ID: id, Title: title})
		}
		out = append(out, core.UIRule{
			LocalID:      uuid.NewString(),
			Collections:  refs,
			ShippingFrom: strconv.Itoa(rule.ShippingFrom),
			ShippingTo:   strconv.Itoa(rule.ShippingTo),
			DeliveryFrom: strconv.Itoa(rule.DeliveryFrom),
			DeliveryTo:   strconv.Itoa(rule.DeliveryTo),
			Errors:       map[string]string{},
		})
	}
	return out, nil
}

func (e *Enricher) resolveTitles(ctx context.Context, rules []core.Rule) (map[string]string, error) {
	ids := uniqueCollectionIDs(rules)
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	if e.resolver == nil {
		return map[string]string{}, nil
	}
	titles, err := e.resolver.ResolveTitles(ctx, ids)
	if err != nil {
		return nil, core.TimelineWrapError(
			err,
			goerrors.CategoryExternal,
			"enrich: resolve collection titles",
			map[string]any{"id_count": len(ids)},
		)
	}
	if titles == nil {
		titles = map[string]string{}
	}
	return titles, nil
}

// NewEmptyUIRule returns a freshly keyed rule with blank fields.
func NewEmptyUIRule() core.UIRule {
	return core.UIRule{
		LocalID:     uuid.NewString(),
		Collections: []core.CollectionRef{},
		Errors:      map[string]string{},
	}
}

// FallbackTitle derives a display title for an id the store no longer knows:
// the trailing path segment of the identifier.
func FallbackTitle(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.TrimSuffix(trimmed, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

func uniqueCollectionIDs(rules []core.Rule) []string {
	seen := map[string]struct{}{}
	ids := []string{}
	for _, rule := range rules {
		for _, id := range rule.Collections {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
