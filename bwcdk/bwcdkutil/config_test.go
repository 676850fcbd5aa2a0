//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkutil_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

func TestNewConfig(t *testing.T) {
	defer jsii.Close()

	tests := []struct {
		name        string
		context     map[string]any
		wantErr     bool
		errContains []string
		wantDeploy  []string
	}{
		{
			name: "valid config",
			context: map[string]any{
				"site-qualifier":      "site",
				"site-primary-region": "eu-west-1",
				"site-deployments":    []any{"Dev", "Stag", "Prod"},
			},
			wantDeploy: []string{"Dev", "Stag", "Prod"},
		},
		{
			name: "selected deployment",
			context: map[string]any{
				"site-qualifier":      "site",
				"site-primary-region": "us-east-1",
				"site-deployments":    []any{"Dev", "Prod"},
				"site-deployment":     "Dev",
			},
			wantDeploy: []string{"Dev"},
		},
		{
			name: "selected deployment not listed",
			context: map[string]any{
				"site-qualifier":      "site",
				"site-primary-region": "us-east-1",
				"site-deployments":    []any{"Prod"},
				"site-deployment":     "Dev",
			},
			wantErr:     true,
			errContains: []string{`deployment "Dev" is not one of`},
		},
		{
			name: "missing qualifier",
			context: map[string]any{
				"site-primary-region": "us-east-1",
				"site-deployments":    []any{"Dev"},
			},
			wantErr:     true,
			errContains: []string{"site-qualifier", "is not set"},
		},
		{
			name: "qualifier too long",
			context: map[string]any{
				"site-qualifier":      "thisqualifieristoolong",
				"site-primary-region": "us-east-1",
				"site-deployments":    []any{"Prod"},
			},
			wantErr:     true,
			errContains: []string{"Qualifier", "exceeds maximum length"},
		},
		{
			name: "lower-case deployment",
			context: map[string]any{
				"site-qualifier":      "site",
				"site-primary-region": "us-east-1",
				"site-deployments":    []any{"prod"},
			},
			wantErr:     true,
			errContains: []string{`deployment "prod" must start with an upper-case letter`},
		},
		{
			name: "unknown primary region",
			context: map[string]any{
				"site-qualifier":      "site",
				"site-primary-region": "unknown-region-1",
				"site-deployments":    []any{"Dev"},
			},
			wantErr:     true,
			errContains: []string{"unknown primary region"},
		},
		{
			name:        "multiple errors",
			context:     map[string]any{},
			wantErr:     true,
			errContains: []string{"site-qualifier", "site-primary-region", "site-deployments"},
		},
		{
			name: "wrong type for qualifier",
			context: map[string]any{
				"site-qualifier":      123,
				"site-primary-region": "us-east-1",
				"site-deployments":    []any{"Dev"},
			},
			wantErr:     true,
			errContains: []string{"site-qualifier", "must be a string"},
		},
		{
			name: "wrong type for deployments",
			context: map[string]any{
				"site-qualifier":      "site",
				"site-primary-region": "us-east-1",
				"site-deployments":    "Dev",
			},
			wantErr:     true,
			errContains: []string{"site-deployments", "must be an array"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := awscdk.NewApp(&awscdk.AppProps{
				Context: &tt.context,
			})

			cfg, err := bwcdkutil.NewConfig(app, bwcdkutil.AppConfig{Prefix: "site-"})

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error but got nil")
				}
				for _, contains := range tt.errContains {
					if !strings.Contains(err.Error(), contains) {
						t.Errorf("error %q should contain %q", err.Error(), contains)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cfg.Qualifier != tt.context["site-qualifier"] {
				t.Errorf("Qualifier = %q, want %q", cfg.Qualifier, tt.context["site-qualifier"])
			}
			if cfg.PrimaryRegion != tt.context["site-primary-region"] {
				t.Errorf("PrimaryRegion = %q, want %q", cfg.PrimaryRegion, tt.context["site-primary-region"])
			}
			if got := cfg.SelectedDeployments(); !slices.Equal(got, tt.wantDeploy) {
				t.Errorf("SelectedDeployments() = %v, want %v", got, tt.wantDeploy)
			}
		})
	}
}

func TestConfigFromScope(t *testing.T) {
	defer jsii.Close()

	app := awscdk.NewApp(nil)
	bwcdkutil.StoreConfig(app, &bwcdkutil.Config{
		Qualifier:     "site",
		PrimaryRegion: "eu-central-1",
		Deployments:   []string{"Prod"},
	})

	stack := awscdk.NewStack(app, jsii.String("TestStack"), nil)
	if got := bwcdkutil.Qualifier(stack); got != "site" {
		t.Errorf("Qualifier() = %q, want site", got)
	}
	if got := bwcdkutil.ConfigFromScope(stack).PrimaryRegion; got != "eu-central-1" {
		t.Errorf("PrimaryRegion = %q, want eu-central-1", got)
	}
}

func TestConfigFromScope_Missing(t *testing.T) {
	defer jsii.Close()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic without stored config")
		}
	}()

	bwcdkutil.ConfigFromScope(awscdk.NewApp(nil))
}
