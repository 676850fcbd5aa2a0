// Package bwsitedomain splits fully qualified domain names and resolves the
// Route53 hosted zone a custom domain belongs to.
package bwsitedomain

import (
	"strings"

	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/cockroachdb/errors"
)

// Parts is a domain split into its first label and the remaining parent domain.
type Parts struct {
	// Subdomain is the first label, empty when the domain has exactly two labels.
	Subdomain string
	// ParentDomain is the rest of the domain. When Subdomain is set it carries
	// a trailing dot, the form Route53 zone lookups expect.
	ParentDomain string
}

// Split splits domain into a subdomain and parent domain.
//
// A domain with two labels (e.g. "example.com") is returned unchanged as the
// parent with an empty subdomain. With more labels the first one becomes the
// subdomain and the rest is joined back with a trailing dot:
// "www.example.com" becomes {"www", "example.com."}.
func Split(domain string) (Parts, error) {
	labels := strings.Split(strings.TrimSuffix(domain, "."), ".")
	if len(labels) < 2 {
		return Parts{}, errors.Wrapf(bwsiteerr.ErrInvalidDomain, "%q needs at least two labels", domain)
	}
	for _, l := range labels {
		if l == "" {
			return Parts{}, errors.Wrapf(bwsiteerr.ErrInvalidDomain, "%q has an empty label", domain)
		}
	}

	if len(labels) == 2 {
		return Parts{ParentDomain: domain}, nil
	}

	return Parts{
		Subdomain:    labels[0],
		ParentDomain: strings.Join(labels[1:], ".") + ".",
	}, nil
}

// FQDN joins the parts back into a domain name without a trailing dot.
func (p Parts) FQDN() string {
	parent := strings.TrimSuffix(p.ParentDomain, ".")
	if p.Subdomain == "" {
		return parent
	}
	return p.Subdomain + "." + parent
}

// ZoneName returns the hosted zone name for fqdn, always with a trailing dot.
//
// When zone is empty the parent domain of fqdn is used. Otherwise fqdn must be
// the zone apex or a name under it, and ErrDomainMismatch is returned when it
// is not.
func ZoneName(fqdn, zone string) (string, error) {
	if zone == "" {
		parts, err := Split(fqdn)
		if err != nil {
			return "", err
		}
		return Canonical(parts.ParentDomain), nil
	}

	if _, err := Split(zone); err != nil {
		return "", err
	}

	name := strings.ToLower(strings.TrimSuffix(fqdn, "."))
	apex := strings.ToLower(strings.TrimSuffix(zone, "."))
	if name != apex && !strings.HasSuffix(name, "."+apex) {
		return "", errors.Wrapf(bwsiteerr.ErrDomainMismatch, "%q is not in zone %q", fqdn, zone)
	}

	return Canonical(zone), nil
}

// Canonical returns name with exactly one trailing dot.
func Canonical(name string) string {
	return strings.TrimSuffix(name, ".") + "."
}
