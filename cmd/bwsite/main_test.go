package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/basewarphq/bwsite/bwsite/bwsiteaws"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsiterun"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/basewarphq/bwsite/bwsite/bwsitestore"
	"github.com/basewarphq/bwsite/internal/testutil"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const testCdkJSON = `{
  "app": "go run ./cdk",
  "context": {
    "bwsite-qualifier": "bwsite",
    "bwsite-primary-region": "eu-central-1",
    "bwsite-deployments": ["Stag", "Prod"]
  }
}`

const describeStacksJSON = `{"Stacks":[{"StackStatus":"CREATE_COMPLETE","Outputs":[
  {"OutputKey":"BucketBucketName","OutputValue":"site-bucket"},
  {"OutputKey":"DistributionDistributionId","OutputValue":"E123"},
  {"OutputKey":"DistributionDomainName","OutputValue":"d111.cloudfront.net"}
]}]}`

type runCall struct {
	dir, name string
	args      []string
}

type fakeRunner struct {
	mu      sync.Mutex
	runs    []runCall
	outputs []runCall
}

func (f *fakeRunner) Output(_ context.Context, dir, name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs = append(f.outputs, runCall{dir: dir, name: name, args: args})
	return describeStacksJSON, nil
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, runCall{dir: dir, name: name, args: args})
	return nil
}

type fakeS3 struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeS3) PutObject(
	_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) sorted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := slices.Clone(f.keys)
	slices.Sort(keys)
	return keys
}

type fakeCloudFront struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeCloudFront) CreateInvalidation(
	_ context.Context, in *cloudfront.CreateInvalidationInput, _ ...func(*cloudfront.Options),
) (*cloudfront.CreateInvalidationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, aws.ToString(in.DistributionId))
	return &cloudfront.CreateInvalidationOutput{
		Invalidation: &types.Invalidation{Id: aws.String("I1")},
	}, nil
}

func (f *fakeCloudFront) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

type harness struct {
	cfg    *bwsitecfg.Config
	fsys   billy.Filesystem
	runner *fakeRunner
	s3     *fakeS3
	cf     *fakeCloudFront
	store  bwsitestore.Store
	out    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	root := testutil.Setup(t, map[string]string{
		"infra/cdk/cdk.json":           testCdkJSON,
		"build/server/index.js":        "exports.handler = () => {}",
		"build/static/assets/app.js":   "console.log(1)",
		"build/prerendered/about.html": "<h1>about</h1>",
	})

	cfg := bwsitecfg.Default()
	cfg.Root = root
	cfg.Site.ServerArtifactPath = "build/server"
	cfg.Site.StaticArtifactPath = "build/static"
	cfg.Site.PrerenderedArtifactPath = "build/prerendered"

	return &harness{
		cfg:    &cfg,
		fsys:   osfs.New("/"),
		runner: &fakeRunner{},
		s3:     &fakeS3{},
		cf:     &fakeCloudFront{},
		store:  bwsitestore.NewMemory(),
		out:    &bytes.Buffer{},
	}
}

// start replaces bwsiterun.Start with fakes for everything that talks to AWS.
func (h *harness) start(
	ctx context.Context, cfg *bwsitecfg.Config, _, _ string, opts ...fx.Option,
) (func(context.Context) error, error) {
	app := fx.New(append([]fx.Option{
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(
			zap.NewNop,
			func() trace.Tracer { return noop.NewTracerProvider().Tracer("test") },
			func() billy.Filesystem { return h.fsys },
			func() bwsitestore.Store { return h.store },
			func() bwsiteaws.PutObjectAPI { return h.s3 },
			func() bwsiteaws.CreateInvalidationAPI { return h.cf },
		),
		bwsiterun.Services(),
	}, opts...)...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return app.Stop, nil
}

func (h *harness) deploy(t *testing.T, cmd DeployCmd) {
	t.Helper()
	if err := cmd.Run(t.Context(), h.cfg, h.fsys, h.runner, h.start, newReporter(h.out)); err != nil {
		t.Fatalf("deploy: %v", err)
	}
}

func TestDeploy(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.deploy(t, DeployCmd{Deployment: "Prod"})

	if len(h.runner.runs) != 1 {
		t.Fatalf("expected one cdk invocation, got %d", len(h.runner.runs))
	}
	run := h.runner.runs[0]
	wantArgs := "deploy --require-approval never --context bwsite-deployment=Prod bwsiteEuc1Prod"
	if run.name != "cdk" || strings.Join(run.args, " ") != wantArgs {
		t.Errorf("ran %s %v, want cdk %s", run.name, run.args, wantArgs)
	}
	if run.dir != filepath.Join(h.cfg.Root, "infra", "cdk") {
		t.Errorf("ran in %s", run.dir)
	}

	if got := h.s3.sorted(); !slices.Equal(got, []string{"about.html", "assets/app.js"}) {
		t.Errorf("uploaded %v", got)
	}
	if h.cf.count() != 1 {
		t.Errorf("expected one invalidation on first deploy, got %d", h.cf.count())
	}
	for _, key := range []string{staticRootKey, prerenderedRootKey} {
		if _, ok, _ := h.store.Get(t.Context(), key); !ok {
			t.Errorf("fingerprint %s not stored", key)
		}
	}
	if !strings.Contains(h.out.String(), "d111.cloudfront.net") {
		t.Errorf("summary misses the distribution domain:\n%s", h.out.String())
	}

	t.Run("unchanged assets are not invalidated", func(t *testing.T) {
		h.deploy(t, DeployCmd{Deployment: "Prod", SkipInfra: true})

		if len(h.runner.runs) != 1 {
			t.Errorf("--skip-infra ran cdk")
		}
		if h.cf.count() != 1 {
			t.Errorf("expected no new invalidation, got %d total", h.cf.count())
		}
		if got := len(h.s3.sorted()); got != 4 {
			t.Errorf("expected objects to be uploaded again, got %d puts", got)
		}
	})

	t.Run("changed assets are invalidated", func(t *testing.T) {
		page := filepath.Join(h.cfg.Root, "build", "prerendered", "about.html")
		if err := os.WriteFile(page, []byte("<h1>about us</h1>"), 0o600); err != nil {
			t.Fatal(err)
		}

		h.deploy(t, DeployCmd{Deployment: "Prod", SkipInfra: true})
		if h.cf.count() != 2 {
			t.Errorf("expected a second invalidation, got %d total", h.cf.count())
		}
	})
}

// missingTableStore fails the way DynamoDB does until cdk deployed the stack
// holding the table.
type missingTableStore struct {
	bwsitestore.Store
	runner *fakeRunner
	stack  string
}

func (s *missingTableStore) deployed() bool {
	s.runner.mu.Lock()
	defer s.runner.mu.Unlock()
	for _, r := range s.runner.runs {
		if slices.Contains(r.args, s.stack) {
			return true
		}
	}
	return false
}

func (s *missingTableStore) Get(ctx context.Context, key string) (string, bool, error) {
	if !s.deployed() {
		return "", false, &ddbtypes.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return s.Store.Get(ctx, key)
}

func (s *missingTableStore) Put(ctx context.Context, key, hash string) error {
	if !s.deployed() {
		return &ddbtypes.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return s.Store.Put(ctx, key, hash)
}

func TestDeploy_DynamoDBStoreOnFirstDeploy(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.cfg.Store.Backend = bwsitecfg.StoreDynamoDB
	h.cfg.Store.Table = "bwsite-fingerprints"
	h.store = &missingTableStore{Store: bwsitestore.NewMemory(), runner: h.runner, stack: "bwsiteEuc1Shared"}

	h.deploy(t, DeployCmd{Deployment: "Prod"})

	var got []string
	for _, r := range h.runner.runs {
		got = append(got, strings.Join(r.args, " "))
	}
	want := []string{
		"deploy --require-approval never --context bwsite-deployment=Prod bwsiteEuc1Shared",
		"deploy --require-approval never --context bwsite-deployment=Prod bwsiteEuc1Prod",
	}
	if !slices.Equal(got, want) {
		t.Errorf("cdk runs = %q, want %q", got, want)
	}
	if h.cf.count() != 1 {
		t.Errorf("expected one invalidation on first deploy, got %d", h.cf.count())
	}
	if _, ok, err := h.store.Get(t.Context(), staticRootKey); err != nil || !ok {
		t.Errorf("fingerprint not stored: found %v, err %v", ok, err)
	}
}

func TestDeploy_UnknownDeployment(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cmd := DeployCmd{Deployment: "Dev"}
	err := cmd.Run(t.Context(), h.cfg, h.fsys, h.runner, h.start, newReporter(h.out))
	if err == nil || !strings.Contains(err.Error(), `unknown deployment "Dev"`) {
		t.Fatalf("expected unknown deployment error, got %v", err)
	}
	if len(h.runner.runs) != 0 {
		t.Error("cdk must not run for an unknown deployment")
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		cmd := PlanCmd{Format: formatTable}
		if err := cmd.Run(h.cfg, h.fsys, newReporter(&out)); err != nil {
			t.Fatal(err)
		}
		got := out.String()
		if !strings.HasPrefix(got, "=== creation order ===") {
			t.Errorf("unexpected heading:\n%s", got)
		}
		if strings.Index(got, bwsitestack.IDRole) > strings.Index(got, bwsitestack.IDDistribution) {
			t.Errorf("role must be listed before the distribution:\n%s", got)
		}
		if strings.Contains(got, "Object:") {
			t.Errorf("objects are only listed with --assets:\n%s", got)
		}
	})

	t.Run("teardown", func(t *testing.T) {
		var out bytes.Buffer
		cmd := PlanCmd{Format: formatTable, Teardown: true}
		if err := cmd.Run(h.cfg, h.fsys, newReporter(&out)); err != nil {
			t.Fatal(err)
		}
		got := out.String()
		if strings.Index(got, bwsitestack.IDDistribution) > strings.Index(got, bwsitestack.IDRole) {
			t.Errorf("distribution must be removed before the role:\n%s", got)
		}
	})

	t.Run("json with assets", func(t *testing.T) {
		var out bytes.Buffer
		cmd := PlanCmd{Format: formatJSON, Assets: true}
		if err := cmd.Run(h.cfg, h.fsys, newReporter(&out)); err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{`"Object:about.html"`, `"Invalidation"`, `"plane": "data"`, `"edges"`} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("json output misses %s", want)
			}
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		cmd := PlanCmd{Format: formatYAML}
		if err := cmd.Run(h.cfg, h.fsys, newReporter(&out)); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "kind: HttpApi") {
			t.Errorf("yaml output misses the api:\n%s", out.String())
		}
	})
}

// row returns the line of the node table listing id, or -1.
func row(out, id string) int {
	for i, line := range strings.Split(out, "\n") {
		if f := strings.Fields(line); len(f) > 1 && f[1] == id {
			return i
		}
	}
	return -1
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fqdn     string
		force    bool
		wantArgs string
	}{
		{
			name:     "without domain",
			wantArgs: "destroy --context bwsite-deployment=Stag bwsiteEuc1Stag",
		},
		{
			name:     "with domain",
			fqdn:     "www.example.com",
			force:    true,
			wantArgs: "destroy --force --context bwsite-deployment=Stag bwsiteEuc1Stag bwsiteUse1StagEdge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.cfg.Site.FQDN = tt.fqdn

			cmd := DestroyCmd{Deployment: "Stag", Force: tt.force}
			if err := cmd.Run(t.Context(), h.cfg, h.fsys, h.runner, newReporter(h.out)); err != nil {
				t.Fatal(err)
			}
			if len(h.runner.runs) != 1 {
				t.Fatalf("expected one cdk invocation, got %d", len(h.runner.runs))
			}
			if got := strings.Join(h.runner.runs[0].args, " "); got != tt.wantArgs {
				t.Errorf("args = %q, want %q", got, tt.wantArgs)
			}
			if !strings.Contains(h.out.String(), "=== teardown order ===") {
				t.Errorf("teardown order not printed:\n%s", h.out.String())
			}
			if row(h.out.String(), bwsitestack.IDDistribution) > row(h.out.String(), bwsitestack.IDBucket) {
				t.Errorf("distribution must be removed before its bucket:\n%s", h.out.String())
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cmd := FingerprintCmd{Deployment: "Prod"}
	if err := cmd.Run(t.Context(), h.cfg, h.start, newReporter(h.out)); err != nil {
		t.Fatal(err)
	}

	got := h.out.String()
	for _, want := range []string{staticRootKey, prerenderedRootKey, "NoPriorFingerprint", "decision: Changed, invalidate [/*]"} {
		if !strings.Contains(got, want) {
			t.Errorf("output misses %q:\n%s", want, got)
		}
	}
	if _, ok, _ := h.store.Get(t.Context(), staticRootKey); ok {
		t.Error("fingerprint must not store anything")
	}
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cmd := InvalidateCmd{Deployment: "Prod"}
	if err := cmd.Run(t.Context(), h.cfg, h.runner, h.start, newReporter(h.out)); err != nil {
		t.Fatal(err)
	}

	if h.cf.count() != 1 || h.cf.ids[0] != "E123" {
		t.Errorf("invalidated %v, want [E123]", h.cf.ids)
	}
	args := strings.Join(h.runner.outputs[0].args, " ")
	if !strings.Contains(args, "--stack-name bwsiteEuc1Prod") || !strings.Contains(args, "--region eu-central-1") {
		t.Errorf("describe-stacks args = %q", args)
	}
	if !strings.Contains(h.out.String(), "invalidation I1 created for distribution E123") {
		t.Errorf("unexpected output:\n%s", h.out.String())
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fqdn, zone string
		want       []string
		wantErr    bool
	}{
		{fqdn: "www.example.com", want: []string{"subdomain  www", "zone       example.com."}},
		{fqdn: "example.com", want: []string{"subdomain  -", "zone       example.com."}},
		{fqdn: "a.b.example.com", zone: "example.com", want: []string{"parent     b.example.com.", "zone       example.com."}},
		{fqdn: "www.example.com", zone: "example.org", wantErr: true},
		{fqdn: "localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.fqdn+"/"+tt.zone, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			cmd := DomainCmd{FQDN: tt.fqdn, Zone: tt.zone}
			err := cmd.Run(newReporter(&out))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output misses %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestDoctor_MissingArtifacts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.cfg.Site.ServerArtifactPath = "build/missing"

	cmd := DoctorCmd{}
	err := cmd.Run(t.Context(), h.cfg, h.fsys, h.runner, newReporter(h.out))
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	got := h.out.String()
	if !strings.Contains(got, "artifact directory missing") {
		t.Errorf("missing artifact not reported:\n%s", got)
	}
	if !strings.Contains(got, "✓  cdk context") {
		t.Errorf("cdk context not reported as ok:\n%s", got)
	}
}
