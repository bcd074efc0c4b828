package common

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// RegisterSteps registers background, health and generic assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the vetting service is running$`, steps.serviceIsRunning)
	ctx.Step(`^I am an admin named "([^"]*)"$`, steps.adminNamed)
	ctx.Step(`^I am an admin named "([^"]*)" with grants "([^"]*)"$`, steps.adminWithGrants)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
}

type commonSteps struct {
	tc *TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if err := s.tc.Applicant(http.MethodGet, "/healthz", nil); err != nil {
		return err
	}
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("health check returned %d", s.tc.Status())
	}
	return nil
}

func (s *commonSteps) adminNamed(ctx context.Context, actor string) error {
	s.tc.AdminActor = actor
	return nil
}

func (s *commonSteps) adminWithGrants(ctx context.Context, actor, grants string) error {
	s.tc.AdminActor = actor
	s.tc.AdminGrants = grants
	return nil
}

func (s *commonSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.Status(); got != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, got, s.tc.lastBody)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(ctx context.Context, code string) error {
	return s.fieldShouldEqual(ctx, "error", code)
}

func (s *commonSteps) fieldShouldEqual(ctx context.Context, field, want string) error {
	got, err := s.tc.FieldString(field)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s to be %q, got %q", field, want, got)
	}
	return nil
}
