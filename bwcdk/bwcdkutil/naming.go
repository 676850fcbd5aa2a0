package bwcdkutil

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/iancoleman/strcase"
)

// nameHashLen is the number of hex characters appended to shortened names.
const nameHashLen = 8

// ResourceName returns the physical name of a resource in kebab case, prefixed
// with the stack's qualifier and deployment identifier.
//
// In a deployment stack the result is "{qualifier}-{deployment}-{label}",
// e.g. "site-prod-server" for label "Server". Shared stacks have no
// deployment and produce "{qualifier}-{label}", e.g. "site-fingerprints".
func ResourceName(scope constructs.Construct, label string) string {
	base := Qualifier(scope)
	if ident := DeploymentIdent(scope); ident != "" {
		base += "-" + ident
	}
	return strcase.ToKebab(base + "-" + label)
}

// LimitedResourceName is ResourceName for services that cap name lengths, such
// as Lambda at 64 characters. Names over maxLen are cut and end in a hash of
// the full name, so two long labels still get distinct names.
func LimitedResourceName(scope constructs.Construct, label string, maxLen int) string {
	name := ResourceName(scope, label)
	if len(name) <= maxLen {
		return name
	}

	sum := sha256.Sum256([]byte(name))
	suffix := hex.EncodeToString(sum[:])[:nameHashLen]
	return name[:maxLen-nameHashLen-1] + "-" + suffix
}
