// Package bwcdksite materializes the control plane of a site deployment graph
// as CDK constructs.
//
// Nodes are declared in dependency order. Each node finds the constructs it
// refers to through the references in its attributes, so the construct tree
// mirrors the graph. Data plane nodes are skipped: they run after the stack
// has been deployed.
package bwcdksite

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigatewayv2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkcdn"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkcerts"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkdns"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkfunction"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkhttpapi"
	"github.com/basewarphq/bwsite/bwcdk/bwcdkutil"
	"github.com/basewarphq/bwsite/bwsite/bwsitegraph"
	"github.com/basewarphq/bwsite/bwsite/bwsitestack"
	"github.com/cockroachdb/errors"
)

// Site provides access to the materialized deployment.
type Site interface {
	// Construct returns the construct declared for a graph node.
	Construct(nodeID string) (constructs.IConstruct, bool)
	// EdgeStack returns the us-east-1 stack, or nil when none was needed.
	EdgeStack() awscdk.Stack
}

// Props configures the Site construct.
type Props struct {
	// Graph is the deployment graph, typically from bwsitestack.Build.
	// Required.
	Graph *bwsitegraph.Graph
}

// certRequest holds a certificate node until its validation record, which
// also knows the zone, is declared.
type certRequest struct {
	domainName string
	region     string
}

type site struct {
	scope   constructs.Construct
	edge    awscdk.Stack
	handles map[string]any
	nodes   map[string]constructs.IConstruct
	onEdge  map[string]bool
	outputs map[bwsitegraph.Ref]*string
}

// New declares every control plane node of props.Graph and exports the
// values the data plane needs as stack outputs keyed by [bwsitegraph.Ref.OutputKey].
// It panics when the graph cannot be materialized.
func New(scope constructs.Construct, props Props) Site {
	scope = constructs.NewConstruct(scope, jsii.String("Site"))
	con := &site{
		scope:   scope,
		handles: map[string]any{},
		nodes:   map[string]constructs.IConstruct{},
		onEdge:  map[string]bool{},
		outputs: map[bwsitegraph.Ref]*string{},
	}

	order, err := props.Graph.Subgraph(bwsitegraph.ControlPlane)
	if err != nil {
		panic(errors.Wrap(err, "ordering deployment graph"))
	}
	for _, n := range order {
		if err := con.declare(n); err != nil {
			panic(errors.Wrapf(err, "declaring %s (%s)", n.ID, n.Kind))
		}
		con.addDependencies(n)
	}

	for _, ref := range bwsitestack.Exports() {
		value, ok := con.outputs[ref]
		if !ok {
			panic(errors.Newf("graph does not declare exported value %s", ref))
		}
		awscdk.NewCfnOutput(awscdk.Stack_Of(scope), jsii.String(ref.OutputKey()), &awscdk.CfnOutputProps{
			Value:       value,
			Description: jsii.String(ref.String()),
		})
	}

	return con
}

func (s *site) Construct(nodeID string) (constructs.IConstruct, bool) {
	c, ok := s.nodes[nodeID]
	return c, ok
}

func (s *site) EdgeStack() awscdk.Stack {
	return s.edge
}

// addDependencies adds the explicit DependsOn edges of n. Edges implied by
// references are already known to CloudFormation, and edges into the edge
// stack are covered by the stack dependency.
func (s *site) addDependencies(n *bwsitegraph.Node) {
	c, ok := s.nodes[n.ID]
	if !ok || s.onEdge[n.ID] {
		return
	}
	for _, dep := range n.DependsOn {
		if d, ok := s.nodes[dep]; ok && !s.onEdge[dep] {
			c.Node().AddDependency(d)
		}
	}
}

// scopeFor returns the scope for resources pinned to region.
func (s *site) scopeFor(region string) (constructs.Construct, bool) {
	if region == "" || region == *awscdk.Stack_Of(s.scope).Region() {
		return s.scope, false
	}
	if region != bwcdkutil.EdgeRegion {
		panic(errors.Newf("resources can only be pinned to %s, got %s", bwcdkutil.EdgeRegion, region))
	}
	if s.edge == nil {
		s.edge = bwcdkutil.NewEdgeStack(s.scope)
	}
	return s.edge, true
}

func (s *site) set(n *bwsitegraph.Node, handle any, c constructs.IConstruct, outputs map[string]*string) {
	s.handles[n.ID] = handle
	if c != nil {
		s.nodes[n.ID] = c
	}
	for attr, v := range outputs {
		s.outputs[bwsitegraph.Ref{Node: n.ID, Attr: attr}] = v
	}
}

// handle returns what was declared for the node ref points at.
func handle[T any](s *site, n *bwsitegraph.Node, attr string) (T, error) {
	var zero T
	ref, ok := n.Attrs[attr].(bwsitegraph.Ref)
	if !ok {
		return zero, errors.Newf("attribute %s is not a reference", attr)
	}
	h, ok := s.handles[ref.Node]
	if !ok {
		return zero, errors.Newf("%s refers to undeclared node %s", attr, ref.Node)
	}
	v, ok := h.(T)
	if !ok {
		return zero, errors.Newf("%s refers to %s which is a %T, want %T", attr, ref.Node, h, zero)
	}
	return v, nil
}

func attrString(n *bwsitegraph.Node, attr string) string {
	v, _ := n.Attrs[attr].(string)
	return v
}

func attrNumber(n *bwsitegraph.Node, attr string) *float64 {
	switch v := n.Attrs[attr].(type) {
	case int:
		if v > 0 {
			return jsii.Number(float64(v))
		}
	case float64:
		if v > 0 {
			return jsii.Number(v)
		}
	}
	return nil
}

func (s *site) declare(n *bwsitegraph.Node) error {
	switch n.Kind {
	case bwsitestack.KindRole:
		return s.declareRole(n)
	case bwsitestack.KindFunction:
		return s.declareFunction(n)
	case bwsitestack.KindHTTPAPI:
		api := bwcdkhttpapi.New(s.scope, n.ID, bwcdkhttpapi.Props{})
		s.set(n, api, api.Api(), map[string]*string{"ApiId": api.ApiID(), "ApiEndpoint": api.Endpoint()})
		return nil
	case bwsitestack.KindIntegration:
		return s.declareIntegration(n)
	case bwsitestack.KindRoute:
		return s.declareRoute(n)
	case bwsitestack.KindPermission:
		return s.declarePermission(n)
	case bwsitestack.KindStage:
		api, err := handle[bwcdkhttpapi.HTTPAPI](s, n, "ApiId")
		if err != nil {
			return err
		}
		stage := api.AddStage(n.ID, attrString(n, "StageName"))
		s.set(n, stage, stage, nil)
		return nil
	case bwsitestack.KindCertificate:
		s.set(n, certRequest{domainName: attrString(n, "DomainName"), region: attrString(n, "Region")}, nil, nil)
		return nil
	case bwsitestack.KindZone:
		zone := bwcdkdns.New(s.scope, n.ID, bwcdkdns.Props{ZoneName: jsii.String(attrString(n, "ZoneName"))})
		s.set(n, zone, zone.HostedZone(), map[string]*string{"HostedZoneId": zone.HostedZone().HostedZoneId()})
		return nil
	case bwsitestack.KindValidationRecord:
		return s.declareValidationRecord(n)
	case bwsitestack.KindCertificateValidation:
		return s.declareCertificateValidation(n)
	case bwsitestack.KindBucket:
		bucket := bwcdkcdn.NewBucket(s.scope, n.ID)
		s.set(n, awss3.IBucket(bucket), bucket, map[string]*string{
			"BucketName":         bucket.BucketName(),
			"RegionalDomainName": bucket.BucketRegionalDomainName(),
		})
		return nil
	case bwsitestack.KindBucketPolicy:
		return s.declareBucketPolicy(n)
	case bwsitestack.KindDistribution:
		return s.declareDistribution(n)
	case bwsitestack.KindAliasRecord:
		return s.declareAliasRecord(n)
	default:
		return errors.Newf("no construct for kind %s", n.Kind)
	}
}

func (s *site) declareRole(n *bwsitegraph.Node) error {
	if p := attrString(n, "AssumedBy"); p != "lambda.amazonaws.com" {
		return errors.Newf("execution role for %q is not supported", p)
	}
	role := bwcdkfunction.NewExecutionRole(s.scope, n.ID)
	s.set(n, role, role, map[string]*string{"Arn": role.RoleArn()})
	return nil
}

func (s *site) declareFunction(n *bwsitegraph.Node) error {
	role, err := handle[awsiam.IRole](s, n, "Role")
	if err != nil {
		return err
	}

	env := map[string]*string{}
	if vars, ok := n.Attrs["Environment"].(map[string]string); ok {
		for k, v := range vars {
			env[k] = jsii.String(v)
		}
	}

	fn := bwcdkfunction.New(s.scope, n.ID, bwcdkfunction.Props{
		Role:         role,
		Code:         jsii.String(attrString(n, "Code")),
		Handler:      jsii.String(attrString(n, "Handler")),
		Runtime:      jsii.String(attrString(n, "Runtime")),
		MemorySize:   attrNumber(n, "MemorySize"),
		Timeout:      attrNumber(n, "Timeout"),
		Architecture: jsii.String(attrString(n, "Architecture")),
		Environment:  &env,
	})
	s.set(n, fn.Function(), fn.Function(), map[string]*string{
		"Arn":          fn.Function().FunctionArn(),
		"FunctionName": fn.Function().FunctionName(),
	})
	return nil
}

func (s *site) declareIntegration(n *bwsitegraph.Node) error {
	api, err := handle[bwcdkhttpapi.HTTPAPI](s, n, "ApiId")
	if err != nil {
		return err
	}
	fn, err := handle[awslambda.IFunction](s, n, "IntegrationUri")
	if err != nil {
		return err
	}
	integration := api.AddLambdaIntegration(n.ID, fn)
	s.set(n, integration, integration, map[string]*string{"IntegrationId": integration.Ref()})
	return nil
}

func (s *site) declareRoute(n *bwsitegraph.Node) error {
	api, err := handle[bwcdkhttpapi.HTTPAPI](s, n, "ApiId")
	if err != nil {
		return err
	}
	integration, err := handle[awsapigatewayv2.CfnIntegration](s, n, "Target")
	if err != nil {
		return err
	}
	route := api.AddRoute(n.ID, attrString(n, "RouteKey"), integration)
	s.set(n, route, route, nil)
	return nil
}

func (s *site) declarePermission(n *bwsitegraph.Node) error {
	api, err := handle[bwcdkhttpapi.HTTPAPI](s, n, "SourceApi")
	if err != nil {
		return err
	}
	fn, err := handle[awslambda.IFunction](s, n, "FunctionName")
	if err != nil {
		return err
	}
	perm := api.GrantInvoke(n.ID, fn)
	s.set(n, perm, perm, nil)
	return nil
}

func (s *site) declareValidationRecord(n *bwsitegraph.Node) error {
	req, err := handle[certRequest](s, n, "CertificateArn")
	if err != nil {
		return err
	}
	zone, err := handle[bwcdkdns.DNS](s, n, "HostedZoneId")
	if err != nil {
		return err
	}

	scope, edge := s.scopeFor(req.region)
	if edge {
		// The zone lookup is per stack.
		zone = bwcdkdns.New(scope, "Zone", bwcdkdns.Props{ZoneName: zone.HostedZone().ZoneName()})
	}

	certs := bwcdkcerts.New(scope, n.ID, bwcdkcerts.Props{
		DomainName: jsii.String(req.domainName),
		HostedZone: zone.HostedZone(),
		Export:     edge,
	})
	s.onEdge[n.ID] = edge
	s.set(n, certs, certs.Certificate(), map[string]*string{
		"CertificateArn": certs.Certificate().CertificateArn(),
	})
	return nil
}

func (s *site) declareCertificateValidation(n *bwsitegraph.Node) error {
	certs, err := handle[bwcdkcerts.Certificates](s, n, "CertificateArn")
	if err != nil {
		return err
	}
	ref, _ := n.Attrs["CertificateArn"].(bwsitegraph.Ref)

	cert := certs.Certificate()
	if s.onEdge[ref.Node] {
		cert = bwcdkcerts.LookupCertificate(s.scope, n.ID)
	}
	s.set(n, cert, cert, map[string]*string{"CertificateArn": cert.CertificateArn()})
	return nil
}

func (s *site) declareBucketPolicy(n *bwsitegraph.Node) error {
	bucket, err := handle[awss3.IBucket](s, n, "Bucket")
	if err != nil {
		return err
	}
	dist, err := handle[awscloudfront.IDistribution](s, n, "SourceArn")
	if err != nil {
		return err
	}
	actions, _ := n.Attrs["Actions"].([]string)
	bwcdkcdn.GrantRead(bucket, dist, actions...)
	return nil
}

func (s *site) declareDistribution(n *bwsitegraph.Node) error {
	api, err := handle[bwcdkhttpapi.HTTPAPI](s, n, "DynamicOrigin")
	if err != nil {
		return err
	}
	bucket, err := handle[awss3.IBucket](s, n, "StaticOrigin")
	if err != nil {
		return err
	}

	behaviors, _ := n.Attrs["Behaviors"].([]bwsitestack.Behavior)
	def, _ := n.Attrs["DefaultBehavior"].(bwsitestack.Behavior)
	props := bwcdkcdn.DistributionProps{
		Bucket:            bucket,
		DynamicOriginHost: api.EndpointHost(),
		DefaultBehavior:   cdnBehavior(def),
	}
	for _, b := range behaviors {
		props.Behaviors = append(props.Behaviors, cdnBehavior(b))
	}
	if aliases, ok := n.Attrs["Aliases"].([]string); ok && len(aliases) > 0 {
		cert, err := handle[awscertificatemanager.ICertificate](s, n, "Certificate")
		if err != nil {
			return err
		}
		props.DomainNames = aliases
		props.Certificate = cert
	}

	dist := bwcdkcdn.NewDistribution(s.scope, n.ID, props)
	s.set(n, awscloudfront.IDistribution(dist), dist, map[string]*string{
		"DistributionId":  dist.DistributionId(),
		"DistributionArn": bwcdkcdn.DistributionArn(dist),
		"DomainName":      dist.DistributionDomainName(),
	})
	return nil
}

func cdnBehavior(b bwsitestack.Behavior) bwcdkcdn.Behavior {
	return bwcdkcdn.Behavior{
		PathPattern:     b.PathPattern,
		Static:          b.Origin == bwsitestack.OriginStatic,
		Cached:          b.CachePolicy == bwsitestack.CachingOptimized,
		AllowAllMethods: b.AllowAllMethods,
	}
}

func (s *site) declareAliasRecord(n *bwsitegraph.Node) error {
	zone, err := handle[bwcdkdns.DNS](s, n, "HostedZoneId")
	if err != nil {
		return err
	}
	dist, err := handle[awscloudfront.IDistribution](s, n, "Target")
	if err != nil {
		return err
	}
	typ := bwcdkdns.RecordType(attrString(n, "Type"))
	if typ != bwcdkdns.RecordTypeA && typ != bwcdkdns.RecordTypeAAAA {
		return errors.Newf("unsupported alias record type %q", typ)
	}
	record := zone.AddDistributionAlias(n.ID, attrString(n, "Name"), typ, dist)
	s.set(n, record, record, nil)
	return nil
}
