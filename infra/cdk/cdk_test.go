//nolint:paralleltest // jsii runtime doesn't support parallel tests
package cdk_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkdynamo"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/infra/cdk"
	"github.com/basewarphq/bwsite/internal/testutil"
	"github.com/go-git/go-billy/v5/osfs"
)

func siteConfig(t *testing.T, backend string) *bwsitecfg.Config {
	t.Helper()

	root := testutil.Setup(t, map[string]string{
		"build/server/index.js":        "exports.handler = async () => ({})\n",
		"build/static/assets/app.js":   "console.log(1)\n",
		"build/prerendered/about.html": "<p>about</p>\n",
	})

	cfg := bwsitecfg.Default()
	cfg.Root = root
	cfg.Site.ServerArtifactPath = "build/server"
	cfg.Site.StaticArtifactPath = "build/static"
	cfg.Site.PrerenderedArtifactPath = "build/prerendered"
	cfg.Store.Backend = backend
	cfg.Store.Table = "site-fingerprints"
	return &cfg
}

func synth(t *testing.T, cfg *bwsitecfg.Config) awscdk.App {
	t.Helper()
	t.Setenv("CDK_DEFAULT_ACCOUNT", "123456789012")

	ctx := map[string]any{
		"bwsite-qualifier":      "bwsite",
		"bwsite-primary-region": "eu-central-1",
		"bwsite-deployments":    []any{"Stag", "Prod"},
	}
	app := awscdk.NewApp(&awscdk.AppProps{Context: &ctx})
	bwcdkutil.SetupApp(app, bwcdkutil.AppConfig{Prefix: "bwsite-"},
		cdk.SharedConstructor(cfg),
		cdk.DeploymentConstructor(cfg, osfs.New("/")),
	)
	return app
}

func TestApp_FileStore(t *testing.T) {
	defer jsii.Close()

	app := synth(t, siteConfig(t, bwsitecfg.StoreFile))

	if app.Node().TryFindChild(jsii.String("bwsiteEuc1Shared")) != nil {
		t.Error("no shared stack expected with the file store")
	}

	stack, ok := app.Node().TryFindChild(jsii.String("bwsiteEuc1Prod")).(awscdk.Stack)
	if !ok {
		t.Fatal("expected deployment stack bwsiteEuc1Prod")
	}

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::CloudFront::Distribution"), map[string]any{
		"DistributionConfig": assertions.Match_ObjectLike(&map[string]any{
			"CacheBehaviors": []any{
				assertions.Match_ObjectLike(&map[string]any{"PathPattern": "/about.html"}),
				assertions.Match_ObjectLike(&map[string]any{"PathPattern": "/assets/*"}),
			},
		}),
	})
}

func TestApp_DynamoStore(t *testing.T) {
	defer jsii.Close()

	app := synth(t, siteConfig(t, bwsitecfg.StoreDynamoDB))

	shared, ok := app.Node().TryFindChild(jsii.String("bwsiteEuc1Shared")).(awscdk.Stack)
	if !ok {
		t.Fatal("expected shared stack with the dynamodb store")
	}

	template := assertions.Template_FromStack(shared, nil)
	template.HasResourceProperties(jsii.String("AWS::DynamoDB::GlobalTable"), map[string]any{
		"TableName": "site-fingerprints",
	})
	template.HasOutput(jsii.String(bwcdkdynamo.TableNameOutputKey), map[string]any{})
}
