package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record identity in the host object store. These values are a wire contract
// shared with previously persisted records and must not change.
const (
	RecordType     = "delivery_timeline_rule"
	FieldKey       = "timelines"
	FieldType      = "json"
	FieldName      = "Timelines"
	DefinitionName = "Delivery Timeline Rule"
)

const (
	DefinitionPageSize = 50
	SingletonPageSize  = 1
)

// Day-range field keys as they appear both in persisted rules and in the
// form-session value maps.
const (
	FieldShippingFrom = "shippingFrom"
	FieldShippingTo   = "shippingTo"
	FieldDeliveryFrom = "deliveryFrom"
	FieldDeliveryTo   = "deliveryTo"
)

// DayRangeFields lists the four numeric rule fields in display order.
var DayRangeFields = []string{
	FieldShippingFrom,
	FieldShippingTo,
	FieldDeliveryFrom,
	FieldDeliveryTo,
}

// Rule is the persisted unit: a set of collection ids sharing one
// shipping/delivery day-range estimate. Collection order is preserved for
// display but carries no further meaning.
type Rule struct {
	Collections  []string `json:"collections"`
	ShippingFrom int      `json:"shippingFrom"`
	ShippingTo   int      `json:"shippingTo"`
	DeliveryFrom int      `json:"deliveryFrom"`
	DeliveryTo   int      `json:"deliveryTo"`
}

// CollectionRef pairs an opaque external collection id with a resolved
// display title.
type CollectionRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UIRule is the form-session projection of a Rule. LocalID keys the rule in
// the session list and is regenerated on every load, never persisted. Field
// values stay raw strings so partially typed input survives re-validation.
type UIRule struct {
	LocalID      string            `json:"localId"`
	Collections  []CollectionRef   `json:"collections"`
	ShippingFrom string            `json:"shippingFrom"`
	ShippingTo   string            `json:"shippingTo"`
	DeliveryFrom string            `json:"deliveryFrom"`
	DeliveryTo   string            `json:"deliveryTo"`
	Errors       map[string]string `json:"errors"`
}

// FieldValues returns the four day-range values keyed for validation.
func (r UIRule) FieldValues() map[string]string {
	return map[string]string{
		FieldShippingFrom: r.ShippingFrom,
		FieldShippingTo:   r.ShippingTo,
		FieldDeliveryFrom: r.DeliveryFrom,
		FieldDeliveryTo:   r.DeliveryTo,
	}
}

// EncodeRules serializes rules for the store's json-typed field. The result
// is a JSON string literal whose content is itself the JSON array: the field
// type performs one layer of structural interpretation on write, so the value
// must arrive double-encoded or the stored payload ends up as a bare array
// that existing readers cannot parse. Wire contract; see DecodeRules for the
// matching single decode.
func EncodeRules(rules []Rule) ([]byte, error) {
	if rules == nil {
		rules = []Rule{}
	}
	inner, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("core: encode rules: %w", err)
	}
	outer, err := json.Marshal(string(inner))
	if err != nil {
		return nil, fmt.Errorf("core: encode rules envelope: %w", err)
	}
	return outer, nil
}

// DecodeRules parses the field value as read back from the store. The store
// already stripped the outer string layer, so exactly one decode applies.
func DecodeRules(value []byte) ([]Rule, error) {
	trimmed := strings.TrimSpace(string(value))
	if trimmed == "" {
		return nil, nil
	}
	var rules []Rule
	if err := json.Unmarshal([]byte(trimmed), &rules); err != nil {
		return nil, fmt.Errorf("core: decode rules: %w", err)
	}
	return rules, nil
}
