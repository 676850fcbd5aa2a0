// Package bwcdkcerts provides the ACM certificate for a site's domain.
//
// CloudFront only accepts certificates from us-east-1. When a site is deployed
// elsewhere the certificate is created in the deployment's edge stack, its ARN
// is stored in SSM Parameter Store there, and the deployment stack reads it
// back with [LookupCertificate].
package bwcdkcerts

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkparams"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
)

const (
	paramsNamespace = "certs"
	paramName       = "certificate-arn"
)

// Certificates provides access to the site certificate.
type Certificates interface {
	// Certificate returns the DNS validated certificate.
	Certificate() awscertificatemanager.ICertificate
}

// Props configures the Certificates construct.
type Props struct {
	// DomainName is the fully qualified name the certificate is issued for.
	// Required.
	DomainName *string
	// HostedZone is the Route53 hosted zone used for DNS validation.
	// Required.
	HostedZone awsroute53.IHostedZone
	// Export stores the certificate ARN for LookupCertificate.
	Export bool
}

type certificates struct {
	certificate awscertificatemanager.ICertificate
}

// New creates a certificate for props.DomainName. Validation records are
// written to the hosted zone, which must be delegated and operational. It
// panics outside of the edge region, where CloudFront cannot use the result.
func New(scope constructs.Construct, id string, props Props) Certificates {
	if !bwcdkutil.IsEdgeStack(scope) {
		panic(fmt.Sprintf("bwcdkcerts: certificate %q must be created in a %s stack", id, bwcdkutil.EdgeRegion))
	}
	scope = constructs.NewConstruct(scope, jsii.String(id))
	con := &certificates{}

	con.certificate = awscertificatemanager.NewCertificate(scope, jsii.String("Certificate"),
		&awscertificatemanager.CertificateProps{
			DomainName: props.DomainName,
			Validation: awscertificatemanager.CertificateValidation_FromDns(props.HostedZone),
		})

	if props.Export {
		bwcdkparams.Store(scope, "CertificateArnParam",
			bwcdkparams.DeploymentNamespace(scope, paramsNamespace), paramName,
			con.certificate.CertificateArn())
	}

	return con
}

// LookupCertificate retrieves the certificate exported by the edge stack of
// the deployment that contains scope.
func LookupCertificate(scope constructs.Construct, id string) awscertificatemanager.ICertificate {
	certArn := bwcdkparams.Lookup(scope, id+"Lookup", bwcdkutil.EdgeRegion,
		bwcdkparams.DeploymentNamespace(scope, paramsNamespace), paramName, "certificate-arn-lookup")
	return awscertificatemanager.Certificate_FromCertificateArn(scope, jsii.String(id), certArn)
}

func (c *certificates) Certificate() awscertificatemanager.ICertificate {
	return c.certificate
}
