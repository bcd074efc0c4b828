package lifecycle

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	"vetting/e2e/steps/common"
)

// RegisterSteps registers driver lifecycle and review queue steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc *common.TestContext) {
	steps := &lifecycleSteps{tc: tc}

	ctx.Step(`^a "([^"]*)" driver named "([^"]*)" with (\d+) years of experience registers$`, steps.registerDriver)
	ctx.Step(`^the driver uploads:$`, steps.uploadArtifacts)
	ctx.Step(`^the driver uploads a "([^"]*)"$`, steps.uploadArtifact)
	ctx.Step(`^the upload should have submitted the driver for review$`, steps.uploadSubmitted)

	ctx.Step(`^I decide "([^"]*)"$`, steps.decide)
	ctx.Step(`^I decide "([^"]*)" with notes "([^"]*)"$`, steps.decideWithNotes)
	ctx.Step(`^I decide "([^"]*)" with a stale version$`, steps.decideStale)
	ctx.Step(`^I (reinstate|deactivate|reactivate) the driver with notes "([^"]*)"$`, steps.lifecycle)
	ctx.Step(`^I call the admin queue without a token$`, steps.queueWithoutToken)

	ctx.Step(`^I review the driver$`, steps.review)
	ctx.Step(`^the driver status should be "([^"]*)"$`, steps.statusShouldBe)
	ctx.Step(`^the driver history should have (\d+) events?$`, steps.historyShouldHave)
	ctx.Step(`^the review queue should list the driver$`, steps.queueShouldList)
}

type lifecycleSteps struct {
	tc *common.TestContext
}

func (s *lifecycleSteps) registerDriver(ctx context.Context, tier, name string, years int) error {
	err := s.tc.Applicant(http.MethodPost, "/drivers", map[string]any{
		"tier":             tier,
		"full_name":        name,
		"years_experience": years,
	})
	if err != nil {
		return err
	}
	if s.tc.Status() != http.StatusCreated {
		return fmt.Errorf("register returned %d", s.tc.Status())
	}
	return s.tc.Remember("")
}

func (s *lifecycleSteps) uploadArtifacts(ctx context.Context, table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		if err := s.uploadArtifact(ctx, row.Cells[0].Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *lifecycleSteps) uploadArtifact(ctx context.Context, kind string) error {
	if err := s.tc.Applicant(http.MethodPost, "/drivers/"+s.tc.DriverID+"/artifacts", map[string]any{"kind": kind}); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusCreated {
		return fmt.Errorf("upload of %s returned %d", kind, s.tc.Status())
	}
	return nil
}

func (s *lifecycleSteps) uploadSubmitted(ctx context.Context) error {
	got, err := s.tc.FieldString("submitted.new_status")
	if err != nil {
		return err
	}
	if got != "pending_verification" {
		return fmt.Errorf("expected auto-submit to pending_verification, got %q", got)
	}
	return s.tc.Remember("submitted.driver")
}

func (s *lifecycleSteps) decide(ctx context.Context, action string) error {
	return s.decideWithNotes(ctx, action, "")
}

func (s *lifecycleSteps) decideWithNotes(ctx context.Context, action, notes string) error {
	return s.post("/decision", map[string]any{
		"action":           action,
		"notes":            notes,
		"expected_version": s.tc.Version,
	})
}

func (s *lifecycleSteps) decideStale(ctx context.Context, action string) error {
	return s.tc.Admin(http.MethodPost, "/admin/drivers/"+s.tc.DriverID+"/decision", map[string]any{
		"action":           action,
		"expected_version": s.tc.Version - 1,
	})
}

func (s *lifecycleSteps) lifecycle(ctx context.Context, verb, notes string) error {
	return s.post("/"+verb, map[string]any{
		"notes":            notes,
		"expected_version": s.tc.Version,
	})
}

// post sends an admin command and tracks the new version on success.
func (s *lifecycleSteps) post(suffix string, body map[string]any) error {
	if err := s.tc.Admin(http.MethodPost, "/admin/drivers/"+s.tc.DriverID+suffix, body); err != nil {
		return err
	}
	if s.tc.Status() == http.StatusOK {
		return s.tc.Remember("driver")
	}
	return nil
}

func (s *lifecycleSteps) queueWithoutToken(ctx context.Context) error {
	return s.tc.Do(http.MethodGet, "/admin/queue", nil, true, false)
}

func (s *lifecycleSteps) review(ctx context.Context) error {
	return s.tc.Admin(http.MethodGet, "/admin/drivers/"+s.tc.DriverID, nil)
}

func (s *lifecycleSteps) statusShouldBe(ctx context.Context, want string) error {
	if err := s.review(ctx); err != nil {
		return err
	}
	got, err := s.tc.FieldString("driver.status")
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected driver status %q, got %q", want, got)
	}
	return nil
}

func (s *lifecycleSteps) historyShouldHave(ctx context.Context, n int) error {
	if err := s.review(ctx); err != nil {
		return err
	}
	v, err := s.tc.Field("history")
	if err != nil {
		return err
	}
	events, ok := v.([]any)
	if !ok {
		return fmt.Errorf("history is %T", v)
	}
	if len(events) != n {
		return fmt.Errorf("expected %d history events, got %d", n, len(events))
	}
	return nil
}

func (s *lifecycleSteps) queueShouldList(ctx context.Context) error {
	if err := s.tc.Admin(http.MethodGet, "/admin/queue", nil); err != nil {
		return err
	}
	items, err := s.tc.Field("items")
	if err != nil {
		return err
	}
	list, _ := items.([]any)
	for i := range list {
		id, err := s.tc.FieldString(fmt.Sprintf("items.%d.driver.id", i))
		if err == nil && id == s.tc.DriverID {
			return nil
		}
	}
	return fmt.Errorf("driver %s not found in queue of %d", s.tc.DriverID, len(list))
}
