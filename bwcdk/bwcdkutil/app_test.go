//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkutil_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

type testShared struct {
	Region string
}

type deploymentCall struct {
	Region, Deployment, Stack string
	Shared                    *testShared
}

func setupTestApp(t *testing.T, ctx map[string]any, withShared bool) []deploymentCall {
	t.Helper()

	app := awscdk.NewApp(&awscdk.AppProps{
		Context: &ctx,
	})

	var newShared bwcdkutil.SharedConstructor[*testShared]
	if withShared {
		newShared = func(stack awscdk.Stack) *testShared {
			return &testShared{Region: *stack.Region()}
		}
	}

	var calls []deploymentCall
	bwcdkutil.SetupApp(app, bwcdkutil.AppConfig{Prefix: "site-"},
		newShared,
		func(stack awscdk.Stack, shared *testShared, deploymentIdent string) {
			calls = append(calls, deploymentCall{
				Region:     *stack.Region(),
				Deployment: deploymentIdent,
				Stack:      *stack.StackName(),
				Shared:     shared,
			})
		},
	)

	return calls
}

func TestSetupApp_AllDeployments(t *testing.T) {
	defer jsii.Close()

	calls := setupTestApp(t, map[string]any{
		"site-qualifier":      "site",
		"site-primary-region": "eu-west-1",
		"site-deployments":    []any{"Dev", "Prod"},
	}, true)

	want := []struct{ Region, Deployment, Stack string }{
		{"eu-west-1", "Dev", "siteEuw1Dev"},
		{"eu-west-1", "Prod", "siteEuw1Prod"},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d deployment calls, got %d: %+v", len(want), len(calls), calls)
	}
	for i, w := range want {
		c := calls[i]
		if c.Region != w.Region || c.Deployment != w.Deployment || c.Stack != w.Stack {
			t.Errorf("deployment call %d = %+v, want %+v", i, c, w)
		}
		if c.Shared == nil || c.Shared.Region != "eu-west-1" {
			t.Errorf("deployment call %d got shared %+v", i, c.Shared)
		}
	}
}

func TestSetupApp_SelectedDeployment(t *testing.T) {
	defer jsii.Close()

	calls := setupTestApp(t, map[string]any{
		"site-qualifier":      "site",
		"site-primary-region": "us-east-1",
		"site-deployments":    []any{"Dev", "Prod"},
		"site-deployment":     "Prod",
	}, false)

	if len(calls) != 1 {
		t.Fatalf("expected 1 deployment call, got %d: %+v", len(calls), calls)
	}
	if calls[0].Deployment != "Prod" || calls[0].Stack != "siteUse1Prod" {
		t.Errorf("deployment call = %+v", calls[0])
	}
	if calls[0].Shared != nil {
		t.Errorf("expected no shared construct, got %+v", calls[0].Shared)
	}
}

func TestSetupApp_InvalidContextPanics(t *testing.T) {
	defer jsii.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for missing context")
		}
	}()

	setupTestApp(t, map[string]any{"site-qualifier": "site"}, false)
}
