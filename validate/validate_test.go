package validate

import (
	"testing"

	"github.com/goliatone/go-delivery-timelines/core"
)

func validValues() map[string]string {
	return map[string]string{
		core.FieldShippingFrom: "1",
		core.FieldShippingTo:   "2",
		core.FieldDeliveryFrom: "3",
		core.FieldDeliveryTo:   "5",
	}
}

func TestRule_ValidValuesProduceNoErrors(t *testing.T) {
	errs := Rule(validValues(), 0)
	if !Valid(errs) {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestRule_EmptyFieldsAreRequired(t *testing.T) {
	for _, field := range core.DayRangeFields {
		values := validValues()
		values[field] = ""
		errs := Rule(values, 0)
		if errs[field] != MessageRequired {
			t.Fatalf("field %s: expected %q, got %q", field, MessageRequired, errs[field])
		}
		if len(errs) != 1 {
			t.Fatalf("field %s: expected single error, got %v", field, errs)
		}
	}
}

func TestRule_NonDigitInputRejected(t *testing.T) {
	for _, value := range []string{"-1", "1.5", "1e3", "12a", " 3", "+4", "three"} {
		values := validValues()
		values[core.FieldShippingFrom] = value
		errs := Rule(values, 0)
		if errs[core.FieldShippingFrom] != MessageNotANumber {
			t.Fatalf("value %q: expected %q, got %q", value, MessageNotANumber, errs[core.FieldShippingFrom])
		}
	}
}

func TestRule_ShippingRangeInversionFlagsToField(t *testing.T) {
	errs := Rule(map[string]string{
		core.FieldShippingFrom: "5",
		core.FieldShippingTo:   "3",
		core.FieldDeliveryFrom: "0",
		core.FieldDeliveryTo:   "0",
	}, 0)
	if errs[core.FieldShippingTo] != messageShippingCmp {
		t.Fatalf("expected range error on shippingTo, got %v", errs)
	}
	if len(errs) != 1 {
		t.Fatalf("expected only shippingTo flagged, got %v", errs)
	}
}

func TestRule_DeliveryRangeInversionFlagsToField(t *testing.T) {
	values := validValues()
	values[core.FieldDeliveryFrom] = "9"
	values[core.FieldDeliveryTo] = "2"
	errs := Rule(values, 0)
	if errs[core.FieldDeliveryTo] != messageDeliveryCmp {
		t.Fatalf("expected range error on deliveryTo, got %v", errs)
	}
}

func TestRule_CrossFieldMessageOverwritesFieldMessage(t *testing.T) {
	// shippingTo below a raised minimum picks up the minimum error first,
	// then the range check replaces it.
	errs := Rule(map[string]string{
		core.FieldShippingFrom: "9",
		core.FieldShippingTo:   "1",
		core.FieldDeliveryFrom: "3",
		core.FieldDeliveryTo:   "4",
	}, 0)
	if errs[core.FieldShippingTo] != messageShippingCmp {
		t.Fatalf("expected cross-field message to win, got %q", errs[core.FieldShippingTo])
	}
}

func TestRule_MinimumCheckUsesConfiguredFloor(t *testing.T) {
	values := validValues()
	values[core.FieldShippingFrom] = "1"
	errs := Rule(values, 2)
	if errs[core.FieldShippingFrom] != "Must be at least 2" {
		t.Fatalf("expected minimum error, got %v", errs)
	}
}

func TestRule_EqualBoundsAreValid(t *testing.T) {
	errs := Rule(map[string]string{
		core.FieldShippingFrom: "2",
		core.FieldShippingTo:   "2",
		core.FieldDeliveryFrom: "0",
		core.FieldDeliveryTo:   "0",
	}, 0)
	if !Valid(errs) {
		t.Fatalf("equal bounds should pass, got %v", errs)
	}
}

func TestRule_RangeCheckSkippedWhenEitherSideInvalid(t *testing.T) {
	errs := Rule(map[string]string{
		core.FieldShippingFrom: "x",
		core.FieldShippingTo:   "1",
		core.FieldDeliveryFrom: "3",
		core.FieldDeliveryTo:   "4",
	}, 0)
	if errs[core.FieldShippingFrom] != MessageNotANumber {
		t.Fatalf("expected number error on shippingFrom, got %v", errs)
	}
	if _, flagged := errs[core.FieldShippingTo]; flagged {
		t.Fatalf("range check should not run against invalid input, got %v", errs)
	}
}
