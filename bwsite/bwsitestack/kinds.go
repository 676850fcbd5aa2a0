package bwsitestack

import "github.com/basewarphq/bwsite/bwsite/bwsitegraph"

// Resource kinds declared by Build.
const (
	KindRole                  bwsitegraph.Kind = "ExecutionRole"
	KindFunction              bwsitegraph.Kind = "Function"
	KindHTTPAPI               bwsitegraph.Kind = "HttpApi"
	KindIntegration           bwsitegraph.Kind = "Integration"
	KindRoute                 bwsitegraph.Kind = "Route"
	KindPermission            bwsitegraph.Kind = "InvokePermission"
	KindStage                 bwsitegraph.Kind = "Stage"
	KindCertificate           bwsitegraph.Kind = "Certificate"
	KindZone                  bwsitegraph.Kind = "HostedZoneLookup"
	KindValidationRecord      bwsitegraph.Kind = "ValidationRecord"
	KindCertificateValidation bwsitegraph.Kind = "CertificateValidation"
	KindBucket                bwsitegraph.Kind = "Bucket"
	KindObject                bwsitegraph.Kind = "Object"
	KindBucketPolicy          bwsitegraph.Kind = "BucketPolicy"
	KindDistribution          bwsitegraph.Kind = "Distribution"
	KindAliasRecord           bwsitegraph.Kind = "AliasRecord"
	KindInvalidation          bwsitegraph.Kind = "Invalidation"
)

// Node IDs. Objects are keyed by ObjectID.
const (
	IDRole                  = "Role"
	IDFunction              = "Function"
	IDHTTPAPI               = "HttpApi"
	IDIntegration           = "Integration"
	IDRoute                 = "DefaultRoute"
	IDPermission            = "InvokePermission"
	IDStage                 = "Stage"
	IDCertificate           = "Certificate"
	IDZone                  = "Zone"
	IDValidationRecord      = "ValidationRecord"
	IDCertificateValidation = "CertificateValidation"
	IDBucket                = "Bucket"
	IDBucketPolicy          = "BucketPolicy"
	IDDistribution          = "Distribution"
	IDAliasRecord           = "AliasRecord"
	IDAliasRecordV6         = "AliasRecordV6"
	IDInvalidation          = "Invalidation"
)

// ObjectID returns the node ID of the object stored under key.
func ObjectID(key string) string {
	return "Object:" + key
}

// Output attributes referenced between nodes.
var (
	RoleArn                        = bwsitegraph.Ref{Node: IDRole, Attr: "Arn"}
	FunctionArn                    = bwsitegraph.Ref{Node: IDFunction, Attr: "Arn"}
	FunctionName                   = bwsitegraph.Ref{Node: IDFunction, Attr: "FunctionName"}
	APIID                          = bwsitegraph.Ref{Node: IDHTTPAPI, Attr: "ApiId"}
	APIEndpoint                    = bwsitegraph.Ref{Node: IDHTTPAPI, Attr: "ApiEndpoint"}
	IntegrationID                  = bwsitegraph.Ref{Node: IDIntegration, Attr: "IntegrationId"}
	CertificateArn                 = bwsitegraph.Ref{Node: IDCertificate, Attr: "CertificateArn"}
	HostedZoneID                   = bwsitegraph.Ref{Node: IDZone, Attr: "HostedZoneId"}
	BucketName                     = bwsitegraph.Ref{Node: IDBucket, Attr: "BucketName"}
	BucketRegionalDomainName       = bwsitegraph.Ref{Node: IDBucket, Attr: "RegionalDomainName"}
	DistributionID                 = bwsitegraph.Ref{Node: IDDistribution, Attr: "DistributionId"}
	DistributionArn                = bwsitegraph.Ref{Node: IDDistribution, Attr: "DistributionArn"}
	DistributionDomainName         = bwsitegraph.Ref{Node: IDDistribution, Attr: "DomainName"}
	ValidatedCertificateArn        = bwsitegraph.Ref{Node: IDCertificateValidation, Attr: "CertificateArn"}
	ValidationRecordCertificateArn = bwsitegraph.Ref{Node: IDValidationRecord, Attr: "CertificateArn"}
)

// Exports are the control plane outputs made available to the data plane
// and to operators after a deployment.
func Exports() []bwsitegraph.Ref {
	return []bwsitegraph.Ref{
		BucketName,
		DistributionID,
		DistributionDomainName,
		APIEndpoint,
		FunctionName,
	}
}

// Origin selects where a CDN behavior forwards requests.
type Origin string

// Origins of the distribution.
const (
	OriginDynamic Origin = "dynamic"
	OriginStatic  Origin = "static"
)

// CachePolicy is a managed CDN cache policy.
type CachePolicy string

// Cache policies used by the distribution.
const (
	CachingOptimized CachePolicy = "CachingOptimized"
	CachingDisabled  CachePolicy = "CachingDisabled"
)

// Behavior is one CDN cache behavior.
type Behavior struct {
	PathPattern string      `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`
	Origin      Origin      `json:"origin" yaml:"origin"`
	CachePolicy CachePolicy `json:"cachePolicy" yaml:"cachePolicy"`
	// AllowAllMethods permits non-GET methods, needed for the dynamic origin.
	AllowAllMethods bool `json:"allowAllMethods,omitempty" yaml:"allowAllMethods,omitempty"`
}
