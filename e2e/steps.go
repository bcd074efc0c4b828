// Package e2e drives a running vetting server through Gherkin scenarios.
// Set VETTING_E2E_URL and VETTING_E2E_ADMIN_TOKEN to enable the suite.
package e2e

import (
	"github.com/cucumber/godog"

	"vetting/e2e/steps/common"
	"vetting/e2e/steps/lifecycle"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *common.TestContext) {
	common.RegisterSteps(ctx, tc)
	lifecycle.RegisterSteps(ctx, tc)
}
