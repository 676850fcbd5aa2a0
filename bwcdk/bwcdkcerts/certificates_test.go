//nolint:paralleltest // jsii runtime doesn't support parallel tests
package bwcdkcerts_test

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkcerts"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

func newStack(t *testing.T, region string) awscdk.Stack {
	t.Helper()
	t.Setenv("CDK_DEFAULT_ACCOUNT", "123456789012")

	app := awscdk.NewApp(nil)
	cfg := &bwcdkutil.Config{Qualifier: "site", PrimaryRegion: region, Deployments: []string{"Prod"}}
	bwcdkutil.StoreConfig(app, cfg)
	return bwcdkutil.NewStackFromConfig(app, cfg, region, "Prod")
}

func hostedZone(stack awscdk.Stack) awsroute53.IHostedZone {
	return awsroute53.HostedZone_FromHostedZoneAttributes(stack, jsii.String("Zone"),
		&awsroute53.HostedZoneAttributes{
			HostedZoneId: jsii.String("Z123"),
			ZoneName:     jsii.String("example.com"),
		})
}

func TestNew(t *testing.T) {
	defer jsii.Close()

	tests := []struct {
		name       string
		export     bool
		wantParams int
	}{
		{name: "local", export: false, wantParams: 0},
		{name: "exported", export: true, wantParams: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack := newStack(t, "us-east-1")
			certs := bwcdkcerts.New(stack, "Certs", bwcdkcerts.Props{
				DomainName: jsii.String("www.example.com"),
				HostedZone: hostedZone(stack),
				Export:     tt.export,
			})
			if certs.Certificate() == nil {
				t.Fatal("expected a certificate")
			}

			template := assertions.Template_FromStack(stack, nil)
			template.HasResourceProperties(jsii.String("AWS::CertificateManager::Certificate"), map[string]any{
				"DomainName":       "www.example.com",
				"ValidationMethod": "DNS",
				"DomainValidationOptions": []any{
					map[string]any{"DomainName": "www.example.com", "HostedZoneId": "Z123"},
				},
			})
			template.ResourceCountIs(jsii.String("AWS::SSM::Parameter"), jsii.Number(tt.wantParams))
			if tt.export {
				template.HasResourceProperties(jsii.String("AWS::SSM::Parameter"), map[string]any{
					"Name": "/site/certs/Prod/certificate-arn",
				})
			}
		})
	}
}

func TestNew_OutsideEdgeRegion(t *testing.T) {
	defer jsii.Close()

	stack := newStack(t, "eu-west-1")
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a certificate outside us-east-1")
		}
	}()
	bwcdkcerts.New(stack, "Certs", bwcdkcerts.Props{
		DomainName: jsii.String("www.example.com"),
		HostedZone: hostedZone(stack),
	})
}

func TestLookupCertificate(t *testing.T) {
	defer jsii.Close()

	stack := newStack(t, "eu-west-1")
	cert := bwcdkcerts.LookupCertificate(stack, "Certificate")
	if cert == nil {
		t.Fatal("expected a certificate")
	}

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("Custom::AWS"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::CertificateManager::Certificate"), jsii.Number(0))
}
