package bwcdkutil

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// Scope-based convenience functions that retrieve Config from the construct tree.

// Qualifier returns the CDK qualifier.
func Qualifier(scope constructs.Construct) string {
	return ConfigFromScope(scope).Qualifier
}

// IsEdgeStack reports whether the stack of scope is in the edge region.
func IsEdgeStack(scope constructs.Construct) bool {
	return *awscdk.Stack_Of(scope).Region() == EdgeRegion
}

// deploymentIdentContextKey stores the deployment of a stack in its context.
const deploymentIdentContextKey = "__bwcdkutil_deployment"

// DeploymentIdent returns the deployment identifier of the stack containing
// scope, or "" for a shared stack.
func DeploymentIdent(scope constructs.Construct) string {
	v, _ := awscdk.Stack_Of(scope).Node().TryGetContext(jsii.String(deploymentIdentContextKey)).(string)
	return v
}

// Config holds all CDK context values validated upfront.
// It centralizes context reading and validation to provide clear error messages.
type Config struct {
	Prefix        string   `validate:"required"`
	Qualifier     string   `validate:"required,max=10"`
	PrimaryRegion string   `validate:"required"`
	Deployments   []string `validate:"required,dive,required"`
	// Deployment optionally limits synthesis to one of Deployments.
	Deployment string
}

// NewConfig reads and validates all CDK context values.
// Returns an error if any required value is missing or invalid.
func NewConfig(scope constructs.Construct, acfg AppConfig) (*Config, error) {
	var readErrs []string

	cfg := &Config{Prefix: acfg.Prefix}

	cfg.Qualifier, readErrs = readContextString(scope, acfg.Prefix+"qualifier", readErrs)
	cfg.PrimaryRegion, readErrs = readContextString(scope, acfg.Prefix+"primary-region", readErrs)
	cfg.Deployments, readErrs = readContextStringSlice(scope, acfg.Prefix+"deployments", readErrs)
	cfg.Deployment = readOptionalContextString(scope, acfg.Prefix+"deployment")

	if cfg.PrimaryRegion != "" && !IsKnownRegion(cfg.PrimaryRegion) {
		readErrs = append(readErrs, fmt.Sprintf(
			"unknown primary region %q - add it to bwcdkutil.RegionIdents", cfg.PrimaryRegion))
	}
	for _, d := range cfg.Deployments {
		if d == "" || strings.ToUpper(d[:1]) != d[:1] {
			readErrs = append(readErrs, fmt.Sprintf(
				"deployment %q must start with an upper-case letter", d))
		}
	}
	if cfg.Deployment != "" && !slices.Contains(cfg.Deployments, cfg.Deployment) {
		readErrs = append(readErrs, fmt.Sprintf(
			"deployment %q is not one of %v", cfg.Deployment, cfg.Deployments))
	}

	if len(readErrs) > 0 {
		return nil, errors.Errorf("CDK context read errors:\n  - %s", strings.Join(readErrs, "\n  - "))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, e := range validationErrs {
				msgs = append(msgs, formatValidationError(e))
			}
			return nil, errors.Errorf("CDK context validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return nil, errors.Wrap(err, "CDK context validation failed")
	}

	return cfg, nil
}

// NeedsEdgeStack reports whether resources pinned to the edge region need a
// stack of their own.
func (c *Config) NeedsEdgeStack() bool {
	return c.PrimaryRegion != EdgeRegion
}

// SelectedDeployments returns the deployments to synthesize.
func (c *Config) SelectedDeployments() []string {
	if c.Deployment != "" {
		return []string{c.Deployment}
	}
	return c.Deployments
}

// configContextKey is the well-known key used to store validated Config in the construct tree.
const configContextKey = "__bwcdkutil_config"

// StoreConfig stores a validated Config in the app's context so it can be retrieved
// anywhere in the construct tree via ConfigFromScope.
func StoreConfig(app awscdk.App, cfg *Config) {
	app.Node().SetContext(jsii.String(configContextKey), cfg)
}

// ConfigFromScope retrieves the validated Config from the construct tree.
// It panics if Config was not stored (i.e., SetupApp was not called).
func ConfigFromScope(scope constructs.Construct) *Config {
	val := scope.Node().TryGetContext(jsii.String(configContextKey))
	if val == nil {
		panic("bwcdkutil.Config not found in construct tree - was SetupApp or StoreConfig called?")
	}
	cfg, ok := val.(*Config)
	if !ok {
		panic(fmt.Sprintf("bwcdkutil.Config has unexpected type %T", val))
	}
	return cfg
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s (got %q)", e.Field(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", e.Field(), e.Tag())
	}
}

func readContextString(scope constructs.Construct, key string, errs []string) (string, []string) {
	val := scope.Node().TryGetContext(jsii.String(key))
	if val == nil {
		return "", append(errs, fmt.Sprintf("context key %q is not set", key))
	}
	s, ok := val.(string)
	if !ok {
		return "", append(errs, fmt.Sprintf("context key %q must be a string, got %T", key, val))
	}
	return s, errs
}

func readContextStringSlice(scope constructs.Construct, key string, errs []string) ([]string, []string) {
	val := scope.Node().TryGetContext(jsii.String(key))
	if val == nil {
		return nil, append(errs, fmt.Sprintf("context key %q is not set", key))
	}

	slice, ok := val.([]any)
	if !ok {
		return nil, append(errs, fmt.Sprintf("context key %q must be an array, got %T", key, val))
	}

	result := make([]string, 0, len(slice))
	for i, v := range slice {
		s, ok := v.(string)
		if !ok {
			return nil, append(errs, fmt.Sprintf("context key %q[%d] must be a string, got %T", key, i, v))
		}
		result = append(result, s)
	}
	return result, errs
}

func readOptionalContextString(scope constructs.Construct, key string) string {
	s, _ := scope.Node().TryGetContext(jsii.String(key)).(string)
	return s
}
