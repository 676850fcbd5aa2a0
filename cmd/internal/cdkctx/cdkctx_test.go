package cdkctx_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/basewarphq/bwsite/cmd/internal/cdkctx"
	"github.com/basewarphq/bwsite/internal/testutil"
)

const cdkJSON = `{
  "app": "go run ./cdk",
  "context": {
    "bwsite-qualifier": "bwsite",
    "bwsite-primary-region": "eu-central-1",
    "bwsite-deployments": ["Stag", "Prod"]
  }
}`

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := testutil.Setup(t, map[string]string{"cdk.json": cdkJSON})

	c, err := cdkctx.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Qualifier != "bwsite" || c.PrimaryRegion != "eu-central-1" {
		t.Errorf("Load() = %+v", c)
	}
	if !slices.Equal(c.Deployments, []string{"Stag", "Prod"}) {
		t.Errorf("Deployments = %v", c.Deployments)
	}

	if got := c.StackName("Prod"); got != "bwsiteEuc1Prod" {
		t.Errorf("StackName() = %q", got)
	}
	if got := c.SharedStackName(); got != "bwsiteEuc1Shared" {
		t.Errorf("SharedStackName() = %q", got)
	}
	if got := c.EdgeStackName("Prod"); got != "bwsiteUse1ProdEdge" {
		t.Errorf("EdgeStackName() = %q", got)
	}
	if !c.NeedsEdgeStack() {
		t.Error("NeedsEdgeStack() = false outside us-east-1")
	}
}

func TestLoad_ContextOverlay(t *testing.T) {
	t.Parallel()

	dir := testutil.Setup(t, map[string]string{
		"cdk.json":         cdkJSON,
		"cdk.context.json": `{"bwsite-primary-region": "us-east-1"}`,
	})

	c, err := cdkctx.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.PrimaryRegion != "us-east-1" {
		t.Errorf("PrimaryRegion = %q, want us-east-1", c.PrimaryRegion)
	}
	if c.NeedsEdgeStack() {
		t.Error("NeedsEdgeStack() = true in us-east-1")
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{name: "missing cdk.json", files: map[string]string{}, wantErr: "reading"},
		{
			name:    "missing qualifier",
			files:   map[string]string{"cdk.json": `{"context":{}}`},
			wantErr: `"bwsite-qualifier" is not set`,
		},
		{
			name: "unknown region",
			files: map[string]string{"cdk.json": `{"context":{"bwsite-qualifier":"q",
				"bwsite-primary-region":"mars-1","bwsite-deployments":["Prod"]}}`},
			wantErr: "(known: af-south-1, ",
		},
		{
			name: "deployments not an array",
			files: map[string]string{"cdk.json": `{"context":{"bwsite-qualifier":"q",
				"bwsite-primary-region":"us-east-1","bwsite-deployments":"Prod"}}`},
			wantErr: "must be an array of strings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := cdkctx.Load(testutil.Setup(t, tt.files))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDeployment(t *testing.T) {
	t.Parallel()

	c := &cdkctx.CDKContext{Deployments: []string{"Stag", "Prod"}}
	if err := c.ValidateDeployment("Prod"); err != nil {
		t.Errorf("ValidateDeployment(Prod) error: %v", err)
	}
	if err := c.ValidateDeployment("Dev"); err == nil || !strings.Contains(err.Error(), "unknown deployment") {
		t.Errorf("ValidateDeployment(Dev) error = %v", err)
	}
}

func TestResolveStackRegion(t *testing.T) {
	t.Parallel()

	c := &cdkctx.CDKContext{Qualifier: "bwsite", PrimaryRegion: "eu-central-1"}
	tests := []struct {
		stack  string
		want   string
		wantOK bool
	}{
		{"bwsiteEuc1Prod", "eu-central-1", true},
		{"bwsiteUse1ProdEdge", "us-east-1", true},
		{"unrelated", "", false},
	}
	for _, tt := range tests {
		got, ok := c.ResolveStackRegion(tt.stack)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ResolveStackRegion(%q) = %q, %v", tt.stack, got, ok)
		}
	}
}

func TestDeploymentArgs(t *testing.T) {
	t.Parallel()

	got := strings.Join(cdkctx.DeploymentArgs("Prod"), " ")
	if got != "--context bwsite-deployment=Prod" {
		t.Errorf("DeploymentArgs() = %q", got)
	}
}
