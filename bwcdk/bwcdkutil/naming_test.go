//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkutil_test

import (
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

func newNamingStack(deploymentIdent string) awscdk.Stack {
	app := awscdk.NewApp(nil)
	bwcdkutil.StoreConfig(app, &bwcdkutil.Config{
		Qualifier:     "testqual",
		PrimaryRegion: "us-east-1",
		Deployments:   []string{"Stag", "Prod"},
	})

	stack := awscdk.NewStack(app, jsii.String("TestStack"), &awscdk.StackProps{
		Env: &awscdk.Environment{Region: jsii.String("us-east-1")},
	})
	if deploymentIdent != "" {
		bwcdkutil.StoreDeploymentIdent(stack, deploymentIdent)
	}
	return stack
}

func TestResourceName(t *testing.T) {
	defer jsii.Close()

	tests := []struct {
		name       string
		deployment string
		label      string
		want       string
	}{
		{name: "deployment stack", deployment: "Stag", label: "Server", want: "testqual-stag-server"},
		{name: "camel label", deployment: "Prod", label: "HttpApi", want: "testqual-prod-http-api"},
		{name: "snake label", deployment: "Prod", label: "site_server", want: "testqual-prod-site-server"},
		{name: "shared stack", label: "fingerprints", want: "testqual-fingerprints"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := bwcdkutil.ResourceName(newNamingStack(tt.deployment), tt.label)
			if got != tt.want {
				t.Errorf("ResourceName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLimitedResourceName(t *testing.T) {
	defer jsii.Close()

	stack := newNamingStack("Prod")

	if got := bwcdkutil.LimitedResourceName(stack, "Server", 64); got != "testqual-prod-server" {
		t.Errorf("short name changed: %q", got)
	}

	long := strings.Repeat("Handler", 12)
	a := bwcdkutil.LimitedResourceName(stack, long, 64)
	b := bwcdkutil.LimitedResourceName(stack, long+"X", 64)
	if len(a) != 64 || len(b) != 64 {
		t.Fatalf("lengths = %d, %d, want 64", len(a), len(b))
	}
	if !strings.HasPrefix(a, "testqual-prod-handler-handler") {
		t.Errorf("unexpected prefix: %q", a)
	}
	if a == b {
		t.Errorf("distinct labels shortened to the same name %q", a)
	}
}
