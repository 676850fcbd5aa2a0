// Package bwsitecfg loads the deployment configuration from bwsite.toml.
//
// The file is searched for in the working directory and its parents. Values
// can be overridden with BWSITE_* environment variables and are validated
// before Load returns. The resulting Config is built once by the entrypoint
// and passed down by value; no other package reads the environment.
package bwsitecfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// FileName is the name of the project configuration file.
const FileName = "bwsite.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BWSITE_"

// Store backends.
const (
	StoreFile     = "file"
	StoreDynamoDB = "dynamodb"
)

// DeploymentTarget describes what gets deployed and where it is served.
type DeploymentTarget struct {
	// ServerArtifactPath is the directory with the server function bundle.
	ServerArtifactPath string `toml:"server" env:"SERVER" validate:"required"`
	// StaticArtifactPath is the directory with static client assets.
	StaticArtifactPath string `toml:"static" env:"STATIC" validate:"required"`
	// PrerenderedArtifactPath is the directory with prerendered pages.
	PrerenderedArtifactPath string `toml:"prerendered" env:"PRERENDERED" validate:"required"`
	// FQDN is the optional custom domain (e.g. "www.example.com").
	FQDN string `toml:"fqdn" env:"FQDN" validate:"omitempty,fqdn"`
	// ZoneName is the hosted zone of FQDN. Derived from FQDN when empty.
	ZoneName string `toml:"zone" env:"ZONE" validate:"omitempty,fqdn"`
	// RoutePatterns are the CDN path patterns served from static storage, in
	// precedence order. Derived from the asset roots when empty.
	RoutePatterns []string `toml:"routes" env:"ROUTES" validate:"dive,required"`
	// MemorySizeMB is the memory of the server function.
	MemorySizeMB int `toml:"memory-size" env:"MEMORY_SIZE" validate:"min=128,max=10240"`
	// Handler is the entry point of the server function.
	Handler string `toml:"handler" env:"HANDLER" validate:"required"`
	// Runtime is the Lambda runtime identifier of the server function.
	Runtime string `toml:"runtime" env:"RUNTIME" validate:"required"`
	// TimeoutSeconds is the server function timeout.
	TimeoutSeconds int `toml:"timeout" env:"TIMEOUT" validate:"min=1,max=900"`
	// Environment is passed to the server function.
	Environment map[string]string `toml:"environment" env:"-"`
	// CreateAAAARecord adds an IPv6 alias record next to the A record.
	CreateAAAARecord bool `toml:"create-aaaa-record" env:"CREATE_AAAA_RECORD"`
}

// HasDomain reports whether a custom domain is configured.
func (t DeploymentTarget) HasDomain() bool {
	return t.FQDN != ""
}

// StoreConfig selects where fingerprints are kept.
type StoreConfig struct {
	Backend string `toml:"backend" env:"BACKEND" validate:"oneof=file dynamodb"`
	// Path is the JSON file used by the file backend, relative to the project root.
	Path string `toml:"path" env:"PATH" validate:"required_if=Backend file"`
	// Table is the DynamoDB table used by the dynamodb backend.
	Table string `toml:"table" env:"TABLE" validate:"required_if=Backend dynamodb"`
}

// UploadConfig tunes asset uploads.
type UploadConfig struct {
	Concurrency        int    `toml:"concurrency" env:"CONCURRENCY" validate:"min=1,max=64"`
	StaticCacheControl string `toml:"static-cache-control" env:"STATIC_CACHE_CONTROL"`
	SniffContentTypes  bool   `toml:"sniff-content-types" env:"SNIFF_CONTENT_TYPES"`
}

// CdkConfig locates the CDK app.
type CdkConfig struct {
	Dir string `toml:"dir" env:"DIR" validate:"required"`
}

// Config is the whole project configuration.
type Config struct {
	// Name identifies the site and scopes its fingerprints in a shared store.
	Name   string           `toml:"name" env:"NAME" validate:"required,alphanum"`
	Root   string           `toml:"-" env:"-"`
	Site   DeploymentTarget `toml:"site" envPrefix:"SITE_"`
	Store  StoreConfig      `toml:"store" envPrefix:"STORE_"`
	Upload UploadConfig     `toml:"upload" envPrefix:"UPLOAD_"`
	Cdk    CdkConfig        `toml:"cdk" envPrefix:"CDK_"`
}

// CdkDir returns the absolute CDK app directory.
func (c *Config) CdkDir() string {
	return c.Path(c.Cdk.Dir)
}

// StorePath returns the absolute path of the file store.
func (c *Config) StorePath() string {
	return c.Path(c.Store.Path)
}

// Path resolves p against the project root unless it is absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Target returns the deployment target with artifact paths resolved against the project root.
func (c *Config) Target() DeploymentTarget {
	t := c.Site
	t.ServerArtifactPath = c.Path(t.ServerArtifactPath)
	t.StaticArtifactPath = c.Path(t.StaticArtifactPath)
	t.PrerenderedArtifactPath = c.Path(t.PrerenderedArtifactPath)
	return t
}

// Default returns a Config with every optional value set.
func Default() Config {
	return Config{
		Name: "Site",
		Site: DeploymentTarget{
			MemorySizeMB:   1024,
			Handler:        "index.handler",
			Runtime:        "nodejs22.x",
			TimeoutSeconds: 15,
		},
		Store: StoreConfig{
			Backend: StoreFile,
			Path:    filepath.Join(".bwsite", "fingerprints.json"),
		},
		Upload: UploadConfig{
			Concurrency:        8,
			StaticCacheControl: "public,max-age=31536000,immutable",
		},
		Cdk: CdkConfig{
			Dir: filepath.Join("infra", "cdk"),
		},
	}
}

// Load finds bwsite.toml from the working directory upwards and loads it.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "determining working directory")
	}
	return LoadFrom(wd)
}

// LoadFrom finds bwsite.toml from dir upwards and loads it.
func LoadFrom(dir string) (*Config, error) {
	root, err := findRoot(dir)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, err := toml.DecodeFile(filepath.Join(root, FileName), &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", FileName)
	}
	cfg.Root = root

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "parsing environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", FileName)
	}
	return &cfg, nil
}

// Validate checks the configuration using struct tags.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, e := range validationErrs {
				msgs = append(msgs, formatValidationError(e))
			}
			return errors.Errorf("validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
		}
		return errors.Wrap(err, "validation failed")
	}

	for i, p := range c.Site.RoutePatterns {
		for _, q := range c.Site.RoutePatterns[:i] {
			if p == q {
				return errors.Newf("site.routes contains %q twice", p)
			}
		}
	}
	if filepath.IsAbs(c.Cdk.Dir) {
		return errors.Newf("cdk.dir must be relative, got %q", c.Cdk.Dir)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got %v)", field, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got %v)", field, e.Param(), e.Value())
	case "fqdn":
		return fmt.Sprintf("%s must be a valid domain name (got %q)", field, e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", field, e.Param(), e.Value())
	case "alphanum":
		return fmt.Sprintf("%s must only contain letters and digits (got %q)", field, e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", field, e.Tag())
	}
}

func findRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Newf("could not find %s in any parent directory", FileName)
		}
		dir = parent
	}
}
