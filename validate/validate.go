// Package validate computes field-level and cross-field errors for one
// timeline rule. It operates on the raw string values held by the form
// session, never on coerced numbers, so it stays pure and cheap enough to run
// on every edit.
package validate

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-delivery-timelines/core"
)

const (
	MessageRequired    = "Required"
	MessageNotANumber  = "Must be a number"
	messageMinimumFmt  = "Must be at least %d"
	messageShippingCmp = "Must be greater than or equal to shipping from"
	messageDeliveryCmp = "Must be greater than or equal to delivery from"
)

// Rule validates the four day-range values of one rule and returns an error
// map keyed by field. An empty map means the rule is valid. Cross-field
// checks run after the per-field checks so their message wins on the "to"
// field of an inverted range.
func Rule(values map[string]string, minDays int) map[string]string {
	errs := map[string]string{}
	for _, field := range core.DayRangeFields {
		if message := checkField(values[field], minDays); message != "" {
			errs[field] = message
		}
	}
	checkRange(values, core.FieldShippingFrom, core.FieldShippingTo, messageShippingCmp, errs)
	checkRange(values, core.FieldDeliveryFrom, core.FieldDeliveryTo, messageDeliveryCmp, errs)
	return errs
}

// Valid reports whether an error map carries no errors.
func Valid(errs map[string]string) bool {
	return len(errs) == 0
}

func checkField(value string, minDays int) string {
	if value == "" {
		return MessageRequired
	}
	if !digitsOnly(value) {
		return MessageNotANumber
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		// Digit-only but unparseable means overflow.
		return MessageNotANumber
	}
	// Unreachable while the minimum is zero; kept so a future nonzero
	// minimum only needs a config change.
	if parsed < minDays {
		return fmt.Sprintf(messageMinimumFmt, minDays)
	}
	return ""
}

func checkRange(values map[string]string, fromField, toField, message string, errs map[string]string) {
	from, okFrom := parseDigits(values[fromField])
	to, okTo := parseDigits(values[toField])
	if !okFrom || !okTo {
		return
	}
	if from > to {
		errs[toField] = message
	}
}

func parseDigits(value string) (int, bool) {
	if value == "" || !digitsOnly(value) {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// digitsOnly rejects signs, decimal points, exponent markers, and whitespace
// by construction: anything outside '0'..'9' fails.
func digitsOnly(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
