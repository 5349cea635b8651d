package session

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-delivery-timelines/core"
	"github.com/goliatone/go-delivery-timelines/enrich"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads [][]core.Rule
	err      error
	block    chan struct{}
}

func (s *fakeSubmitter) Submit(_ context.Context, rules []core.Rule) (core.SubmitResult, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	s.payloads = append(s.payloads, rules)
	s.mu.Unlock()
	if s.err != nil {
		return core.SubmitResult{}, s.err
	}
	return core.SubmitResult{Action: "created", ID: "gid://records/1"}, nil
}

type fakeNotifier struct {
	messages []string
	isError  []bool
}

func (n *fakeNotifier) Notify(_ context.Context, message string, isError bool) {
	n.messages = append(n.messages, message)
	n.isError = append(n.isError, isError)
}

func seededRule(from, to, dFrom, dTo string) core.UIRule {
	rule := enrich.NewEmptyUIRule()
	rule.ShippingFrom = from
	rule.ShippingTo = to
	rule.DeliveryFrom = dFrom
	rule.DeliveryTo = dTo
	return rule
}

func TestNewControllerStartsWithOneEmptyRule(t *testing.T) {
	controller := NewController(&fakeSubmitter{}, nil, 0)
	rules := controller.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected one fresh rule, got %d", len(rules))
	}
	if rules[0].LocalID == "" {
		t.Fatalf("fresh rule needs a local id")
	}
}

func TestUpdateField_RevalidatesOnlyThatRule(t *testing.T) {
	controller := NewController(&fakeSubmitter{}, nil, 0)
	controller.Load([]core.UIRule{
		seededRule("1", "2", "3", "5"),
		seededRule("", "", "", ""),
	})
	rules := controller.Rules()

	if err := controller.UpdateField(rules[0].LocalID, core.FieldShippingTo, "0"); err != nil {
		t.Fatalf("update field: %v", err)
	}
	updated := controller.Rules()
	if updated[0].ShippingTo != "0" {
		t.Fatalf("expected field replaced, got %+v", updated[0])
	}
	if _, flagged := updated[0].Errors[core.FieldShippingTo]; !flagged {
		t.Fatalf("expected inverted range flagged, got %v", updated[0].Errors)
	}
	if len(updated[1].Errors) != 0 {
		t.Fatalf("other rule must stay untouched, got %v", updated[1].Errors)
	}
}

func TestUpdateField_RejectsUnknownRuleAndField(t *testing.T) {
	controller := NewController(&fakeSubmitter{}, nil, 0)
	if err := controller.UpdateField("missing", core.FieldShippingTo, "1"); err == nil {
		t.Fatalf("expected unknown rule error")
	}
	rules := controller.Rules()
	if err := controller.UpdateField(rules[0].LocalID, "bogus", "1"); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestUpdateCollections_ReplacesWholesale(t *testing.T) {
	controller := NewController(&fakeSubmitter{}, nil, 0)
	rules := controller.Rules()

	picked := []core.CollectionRef{
		{ID: "gid://x/1", Title: "Blue Shirts"},
		{ID: "gid://x/2", Title: "Red Shirts"},
	}
	if err := controller.UpdateCollections(rules[0].LocalID, picked); err != nil {
		t.Fatalf("update collections: %v", err)
	}
	if !reflect.DeepEqual(controller.Rules()[0].Collections, picked) {
		t.Fatalf("expected replacement set, got %v", controller.Rules()[0].Collections)
	}

	if err := controller.UpdateCollections(rules[0].LocalID, nil); err != nil {
		t.Fatalf("clear collections: %v", err)
	}
	if len(controller.Rules()[0].Collections) != 0 {
		t.Fatalf("expected cleared collections")
	}
}

func TestAddAndRemoveRule(t *testing.T) {
	controller := NewController(&fakeSubmitter{}, nil, 0)
	added := controller.AddRule()
	if len(controller.Rules()) != 2 {
		t.Fatalf("expected two rules after add")
	}
	if err := controller.RemoveRule(added.LocalID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(controller.Rules()) != 1 {
		t.Fatalf("expected one rule after remove")
	}
	if err := controller.RemoveRule(added.LocalID); err == nil {
		t.Fatalf("expected unknown rule error on second remove")
	}
}

func TestRules_ReturnsIsolatedCopies(t *testing.T) {
	controller := NewController(&fakeSubmitter{}, nil, 0)
	rule := seededRule("0", "2", "3", "5")
	rule.Collections = []core.CollectionRef{{ID: "gid://x/1", Title: "Blue Shirts"}}
	rule.Errors = map[string]string{core.FieldShippingTo: "Must be greater than or equal to shipping from"}
	controller.Load([]core.UIRule{rule})

	got := controller.Rules()
	got[0].Collections[0] = core.CollectionRef{ID: "gid://x/999", Title: "Mutated"}
	got[0].Errors["injected"] = "boom"
	delete(got[0].Errors, core.FieldShippingTo)

	fresh := controller.Rules()
	if fresh[0].Collections[0].ID != "gid://x/1" || fresh[0].Collections[0].Title != "Blue Shirts" {
		t.Fatalf("caller mutation leaked into collections: %v", fresh[0].Collections)
	}
	if _, injected := fresh[0].Errors["injected"]; injected {
		t.Fatalf("caller mutation leaked into errors: %v", fresh[0].Errors)
	}
	if _, kept := fresh[0].Errors[core.FieldShippingTo]; !kept {
		t.Fatalf("caller deletion leaked into errors: %v", fresh[0].Errors)
	}
}

func TestLoad_DetachesFromCallerSlices(t *testing.T) {
	controller := NewController(&fakeSubmitter{}, nil, 0)
	rule := seededRule("1", "2", "3", "5")
	rule.Collections = []core.CollectionRef{{ID: "gid://x/1", Title: "Blue Shirts"}}
	seed := []core.UIRule{rule}
	controller.Load(seed)

	seed[0].Collections[0].Title = "Mutated"
	if controller.Rules()[0].Collections[0].Title != "Blue Shirts" {
		t.Fatalf("caller mutation leaked into session state")
	}
}

func TestSave_BlocksAndMarksEveryInvalidRule(t *testing.T) {
	submitter := &fakeSubmitter{}
	notifier := &fakeNotifier{}
	controller := NewController(submitter, notifier, 0)
	controller.Load([]core.UIRule{
		seededRule("1", "2", "3", "5"),
		seededRule("", "2", "3", "5"), // untouched invalid row
	})

	outcome, err := controller.Save(context.Background())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if outcome.Outcome != OutcomeBlocked {
		t.Fatalf("expected blocked outcome, got %+v", outcome)
	}
	if len(submitter.payloads) != 0 {
		t.Fatalf("blocked save must not submit, got %v", submitter.payloads)
	}
	rules := controller.Rules()
	if len(rules[1].Errors) == 0 {
		t.Fatalf("untouched invalid rule must carry fresh errors")
	}
	if len(notifier.messages) != 1 || !notifier.isError[0] {
		t.Fatalf("expected one blocking notification, got %v", notifier.messages)
	}
}

func TestSave_SubmitsCoercedRulesAtomically(t *testing.T) {
	submitter := &fakeSubmitter{}
	notifier := &fakeNotifier{}
	controller := NewController(submitter, notifier, 0)

	rule := seededRule("1", "2", "3", "5")
	rule.Collections = []core.CollectionRef{{ID: "gid://x/1", Title: "Blue Shirts"}}
	controller.Load([]core.UIRule{rule})

	outcome, err := controller.Save(context.Background())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if outcome.Outcome != OutcomeSaved || outcome.Action != "created" || outcome.ID != "gid://records/1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(submitter.payloads) != 1 {
		t.Fatalf("expected one atomic submission, got %d", len(submitter.payloads))
	}
	want := []core.Rule{{
		Collections:  []string{"gid://x/1"},
		ShippingFrom: 1,
		ShippingTo:   2,
		DeliveryFrom: 3,
		DeliveryTo:   5,
	}}
	if !reflect.DeepEqual(submitter.payloads[0], want) {
		t.Fatalf("expected stripped, coerced payload %v, got %v", want, submitter.payloads[0])
	}
	if len(notifier.messages) != 1 || notifier.isError[0] {
		t.Fatalf("expected success notification, got %v", notifier.messages)
	}
}

func TestSave_InFlightGuardBlocksSecondSave(t *testing.T) {
	submitter := &fakeSubmitter{block: make(chan struct{})}
	controller := NewController(submitter, nil, 0)
	controller.Load([]core.UIRule{seededRule("1", "2", "3", "5")})

	firstDone := make(chan error, 1)
	go func() {
		_, err := controller.Save(context.Background())
		firstDone <- err
	}()

	// Wait for the first save to take the in-flight guard.
	for {
		controller.mu.Lock()
		inFlight := controller.inFlight
		controller.mu.Unlock()
		if inFlight {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := controller.Save(context.Background()); err == nil {
		t.Fatalf("expected in-flight save to block a second save")
	}

	close(submitter.block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Guard clears after completion.
	if _, err := controller.Save(context.Background()); err != nil {
		t.Fatalf("save after completion: %v", err)
	}
}

func TestSave_SubmitterErrorPropagates(t *testing.T) {
	submitter := &fakeSubmitter{err: context.DeadlineExceeded}
	notifier := &fakeNotifier{}
	controller := NewController(submitter, notifier, 0)
	controller.Load([]core.UIRule{seededRule("1", "2", "3", "5")})

	if _, err := controller.Save(context.Background()); err == nil {
		t.Fatalf("expected submitter error to propagate")
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("no success notification on failure, got %v", notifier.messages)
	}
}
