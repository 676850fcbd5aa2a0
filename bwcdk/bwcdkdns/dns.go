// Package bwcdkdns provides access to an existing Route53 hosted zone and the
// alias records that point a site's domain at its distribution.
//
// The zone itself is not managed here: it is looked up by name at synth time,
// so it must exist in the account before the first deploy.
package bwcdkdns

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
)

// RecordType is the type of an alias record.
type RecordType string

// Supported alias record types.
const (
	RecordTypeA    RecordType = "A"
	RecordTypeAAAA RecordType = "AAAA"
)

// DNS provides access to a Route53 hosted zone.
type DNS interface {
	// HostedZone returns the looked up zone.
	HostedZone() awsroute53.IHostedZone
	// AddDistributionAlias points recordName at dist.
	AddDistributionAlias(id string, recordName string, typ RecordType, dist awscloudfront.IDistribution) awsroute53.IRecordSet
}

// Props configures the DNS construct.
type Props struct {
	// ZoneName is the hosted zone to look up (e.g., "example.com."). A
	// trailing dot is accepted.
	// Required.
	ZoneName *string
}

type dns struct {
	scope      constructs.Construct
	hostedZone awsroute53.IHostedZone
}

// New looks up the hosted zone named in props. The stack must have a concrete
// account and region.
func New(scope constructs.Construct, id string, props Props) DNS {
	scope = constructs.NewConstruct(scope, jsii.String(id))
	con := &dns{scope: scope}

	con.hostedZone = awsroute53.HostedZone_FromLookup(scope, jsii.String("HostedZone"),
		&awsroute53.HostedZoneProviderProps{
			DomainName: jsii.String(strings.TrimSuffix(*props.ZoneName, ".")),
		})

	return con
}

func (d *dns) HostedZone() awsroute53.IHostedZone {
	return d.hostedZone
}

func (d *dns) AddDistributionAlias(
	id string, recordName string, typ RecordType, dist awscloudfront.IDistribution,
) awsroute53.IRecordSet {
	target := awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(dist))
	name := jsii.String(strings.TrimSuffix(recordName, "."))

	switch typ {
	case RecordTypeA:
		return awsroute53.NewARecord(d.scope, jsii.String(id), &awsroute53.ARecordProps{
			Zone:       d.hostedZone,
			RecordName: name,
			Target:     target,
		})
	case RecordTypeAAAA:
		return awsroute53.NewAaaaRecord(d.scope, jsii.String(id), &awsroute53.AaaaRecordProps{
			Zone:       d.hostedZone,
			RecordName: name,
			Target:     target,
		})
	default:
		panic(errors.Newf("unsupported alias record type %q", typ))
	}
}
