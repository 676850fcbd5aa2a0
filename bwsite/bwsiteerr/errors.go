// Package bwsiteerr holds the error taxonomy shared by the bwsite packages.
//
// Errors returned by bwsite are wrapped or marked with one of the sentinels
// below so callers can classify them with errors.Is while the original cause
// stays available for printing.
package bwsiteerr

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidDomain is returned for a domain with fewer than two labels.
	ErrInvalidDomain = errors.New("invalid domain")
	// ErrDomainMismatch is returned when a configured FQDN is not inside the hosted zone.
	ErrDomainMismatch = errors.New("domain does not belong to hosted zone")
	// ErrFilesystem marks failures to list or read a build artifact directory.
	ErrFilesystem = errors.New("filesystem error")
	// ErrProvider marks failures reported by the cloud provider or the deploy engine.
	ErrProvider = errors.New("provider error")
)

// Filesystem marks err as an ErrFilesystem while keeping the cause.
func Filesystem(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrFilesystem)
}

// Provider marks err as an ErrProvider while keeping the cause.
func Provider(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrProvider)
}
