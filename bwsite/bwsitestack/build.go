// Package bwsitestack declares the resources of a site deployment as an
// explicit dependency graph.
//
// The graph is provider neutral: the CDK app maps its control plane nodes to
// constructs, and the deploy command executes the data plane nodes (object
// uploads and the cache invalidation) against the SDK after the control plane
// has been materialized.
package bwsitestack

import (
	"github.com/basewarphq/bwsite/bwsite/bwsiteassets"
	"github.com/basewarphq/bwsite/bwsite/bwsitecfg"
	"github.com/basewarphq/bwsite/bwsite/bwsitedomain"
	"github.com/basewarphq/bwsite/bwsite/bwsitegraph"
	"github.com/basewarphq/bwsite/bwsite/bwsiteinval"
	"github.com/cockroachdb/errors"
)

// Input is everything Build needs for one deployment run.
type Input struct {
	Target bwsitecfg.DeploymentTarget
	// Assets are the objects to upload. Nil when only the control plane is built.
	Assets []bwsiteassets.Record
	// Invalidate adds the cache invalidation node.
	Invalidate bool
}

// Build declares the deployment graph for in. The result has been validated:
// every dependency exists and there are no cycles.
func Build(in Input) (*bwsitegraph.Graph, error) {
	b := &builder{g: bwsitegraph.New(), target: in.Target}

	b.compute()
	b.api()
	if in.Target.HasDomain() {
		if err := b.certificate(); err != nil {
			return nil, err
		}
	}
	b.storage()
	b.distribution()
	if in.Target.HasDomain() {
		b.aliases()
	}
	objects := b.objects(in.Assets)
	if in.Invalidate {
		b.invalidation(objects)
	}

	if b.err != nil {
		return nil, b.err
	}
	if err := b.g.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating deployment graph")
	}
	return b.g, nil
}

// BuildFromDecision builds the graph with the invalidation node present only
// when the decision requires one.
func BuildFromDecision(
	target bwsitecfg.DeploymentTarget, assets []bwsiteassets.Record, d bwsiteinval.Decision,
) (*bwsitegraph.Graph, error) {
	return Build(Input{Target: target, Assets: assets, Invalidate: d.Invalidate()})
}

type builder struct {
	g      *bwsitegraph.Graph
	target bwsitecfg.DeploymentTarget
	err    error
}

func (b *builder) add(n bwsitegraph.Node) {
	if b.err != nil {
		return
	}
	if _, err := b.g.Add(n); err != nil {
		b.err = errors.Wrapf(err, "declaring %s", n.ID)
	}
}

func (b *builder) compute() {
	b.add(bwsitegraph.Node{
		ID:   IDRole,
		Kind: KindRole,
		Attrs: map[string]any{
			"AssumedBy":       "lambda.amazonaws.com",
			"ManagedPolicies": []string{"service-role/AWSLambdaBasicExecutionRole"},
		},
	})

	env := map[string]string{}
	for k, v := range b.target.Environment {
		env[k] = v
	}
	b.add(bwsitegraph.Node{
		ID:   IDFunction,
		Kind: KindFunction,
		Attrs: map[string]any{
			"Role":         RoleArn,
			"Code":         b.target.ServerArtifactPath,
			"Handler":      b.target.Handler,
			"Runtime":      b.target.Runtime,
			"MemorySize":   b.target.MemorySizeMB,
			"Timeout":      b.target.TimeoutSeconds,
			"Architecture": "arm64",
			"Environment":  env,
		},
	})
}

func (b *builder) api() {
	b.add(bwsitegraph.Node{
		ID:    IDHTTPAPI,
		Kind:  KindHTTPAPI,
		Attrs: map[string]any{"ProtocolType": "HTTP"},
	})
	b.add(bwsitegraph.Node{
		ID:   IDIntegration,
		Kind: KindIntegration,
		Attrs: map[string]any{
			"ApiId":                APIID,
			"IntegrationUri":       FunctionArn,
			"IntegrationType":      "AWS_PROXY",
			"PayloadFormatVersion": "2.0",
		},
	})
	b.add(bwsitegraph.Node{
		ID:   IDRoute,
		Kind: KindRoute,
		Attrs: map[string]any{
			"ApiId":    APIID,
			"RouteKey": "$default",
			"Target":   IntegrationID,
		},
	})
	b.add(bwsitegraph.Node{
		ID:   IDPermission,
		Kind: KindPermission,
		Attrs: map[string]any{
			"FunctionName": FunctionName,
			"Principal":    "apigateway.amazonaws.com",
			"SourceApi":    APIID,
		},
	})
	b.add(bwsitegraph.Node{
		ID:   IDStage,
		Kind: KindStage,
		Attrs: map[string]any{
			"ApiId":      APIID,
			"StageName":  "$default",
			"AutoDeploy": true,
		},
		DependsOn: []string{IDRoute},
	})
}

func (b *builder) certificate() error {
	parts, err := bwsitedomain.Split(b.target.FQDN)
	if err != nil {
		return err
	}
	zone, err := bwsitedomain.ZoneName(b.target.FQDN, b.target.ZoneName)
	if err != nil {
		return err
	}

	b.add(bwsitegraph.Node{
		ID:   IDCertificate,
		Kind: KindCertificate,
		Attrs: map[string]any{
			"DomainName":       parts.FQDN(),
			"ValidationMethod": "DNS",
			// CloudFront only accepts certificates issued in us-east-1.
			"Region": "us-east-1",
		},
	})
	b.add(bwsitegraph.Node{
		ID:    IDZone,
		Kind:  KindZone,
		Attrs: map[string]any{"ZoneName": zone},
	})
	b.add(bwsitegraph.Node{
		ID:   IDValidationRecord,
		Kind: KindValidationRecord,
		Attrs: map[string]any{
			"CertificateArn": CertificateArn,
			"HostedZoneId":   HostedZoneID,
		},
	})
	b.add(bwsitegraph.Node{
		ID:   IDCertificateValidation,
		Kind: KindCertificateValidation,
		Attrs: map[string]any{
			"CertificateArn": ValidationRecordCertificateArn,
		},
	})
	return nil
}

func (b *builder) storage() {
	b.add(bwsitegraph.Node{
		ID:   IDBucket,
		Kind: KindBucket,
		Attrs: map[string]any{
			"BlockPublicAccess": true,
			"Encryption":        "S3_MANAGED",
			"EnforceSSL":        true,
		},
	})
	b.add(bwsitegraph.Node{
		ID:   IDBucketPolicy,
		Kind: KindBucketPolicy,
		Attrs: map[string]any{
			"Bucket":    BucketName,
			"Actions":   []string{"s3:GetObject"},
			"Principal": "cloudfront.amazonaws.com",
			"SourceArn": DistributionArn,
		},
	})
}

// Behaviors returns the ordered static behaviors followed by the default
// behavior for the given route patterns.
func Behaviors(patterns []string) (ordered []Behavior, def Behavior) {
	ordered = make([]Behavior, 0, len(patterns))
	for _, p := range patterns {
		ordered = append(ordered, Behavior{
			PathPattern: p,
			Origin:      OriginStatic,
			CachePolicy: CachingOptimized,
		})
	}
	return ordered, Behavior{
		Origin:          OriginDynamic,
		CachePolicy:     CachingDisabled,
		AllowAllMethods: true,
	}
}

func (b *builder) distribution() {
	ordered, def := Behaviors(b.target.RoutePatterns)
	attrs := map[string]any{
		"DynamicOrigin":   APIEndpoint,
		"StaticOrigin":    BucketRegionalDomainName,
		"Behaviors":       ordered,
		"DefaultBehavior": def,
	}
	if b.target.HasDomain() {
		attrs["Aliases"] = []string{b.target.FQDN}
		attrs["Certificate"] = ValidatedCertificateArn
	}
	b.add(bwsitegraph.Node{
		ID:    IDDistribution,
		Kind:  KindDistribution,
		Attrs: attrs,
	})
}

func (b *builder) aliases() {
	types := []string{"A"}
	if b.target.CreateAAAARecord {
		types = append(types, "AAAA")
	}
	for _, typ := range types {
		id := IDAliasRecord
		if typ == "AAAA" {
			id = IDAliasRecordV6
		}
		b.add(bwsitegraph.Node{
			ID:   id,
			Kind: KindAliasRecord,
			Attrs: map[string]any{
				"HostedZoneId": HostedZoneID,
				"Name":         b.target.FQDN,
				"Type":         typ,
				"Target":       DistributionDomainName,
			},
		})
	}
}

func (b *builder) objects(assets []bwsiteassets.Record) []string {
	ids := make([]string, 0, len(assets))
	for _, rec := range assets {
		attrs := map[string]any{
			"Bucket": BucketName,
			"Key":    rec.RemoteKey,
			"Source": rec.LocalPath,
		}
		if rec.ContentType != nil {
			attrs["ContentType"] = *rec.ContentType
		}
		if rec.CacheControl != nil {
			attrs["CacheControl"] = *rec.CacheControl
		}
		id := ObjectID(rec.RemoteKey)
		b.add(bwsitegraph.Node{
			ID:    id,
			Kind:  KindObject,
			Plane: bwsitegraph.DataPlane,
			Attrs: attrs,
		})
		ids = append(ids, id)
	}
	return ids
}

// invalidation runs after every object is in place so the CDN does not
// cache stale content fetched mid upload.
func (b *builder) invalidation(objects []string) {
	b.add(bwsitegraph.Node{
		ID:    IDInvalidation,
		Kind:  KindInvalidation,
		Plane: bwsitegraph.DataPlane,
		Attrs: map[string]any{
			"DistributionId": DistributionID,
			"Paths":          []string{bwsiteinval.WildcardPath},
		},
		DependsOn: objects,
	})
}
