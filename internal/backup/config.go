package backup

import (
	"fmt"
	"time"
)

// SystemConfig is the full adapter-facing configuration surface. The core
// engine itself only ever sees fully-populated jobs; this struct feeds the
// CLI and application wiring.
type SystemConfig struct {
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Upload   UploadConfig   `mapstructure:"upload" yaml:"upload"`
	Notify   NotifyConfig   `mapstructure:"notify" yaml:"notify"`
}

// DefaultsConfig holds fallback job parameters.
type DefaultsConfig struct {
	Codec    string `mapstructure:"codec" yaml:"codec"`
	BaseName string `mapstructure:"base_name" yaml:"base_name"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// UploadConfig selects an optional remote store for successful artifacts.
// An empty provider disables upload.
type UploadConfig struct {
	Provider string       `mapstructure:"provider" yaml:"provider"`
	S3       *S3Config    `mapstructure:"s3" yaml:"s3,omitempty"`
	GCS      *GCSConfig   `mapstructure:"gcs" yaml:"gcs,omitempty"`
	Azure    *AzureConfig `mapstructure:"azure" yaml:"azure,omitempty"`
}

// S3Config for Amazon S3 upload
type S3Config struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
}

// Validate checks required S3 fields
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return NewConfigurationError("s3 bucket is required", nil)
	}
	if c.Region == "" {
		return NewConfigurationError("s3 region is required", nil)
	}
	return nil
}

// GCSConfig for Google Cloud Storage upload
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	CredentialsPath string `mapstructure:"credentials_path" yaml:"credentials_path"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
}

// Validate checks required GCS fields
func (c *GCSConfig) Validate() error {
	if c.Bucket == "" {
		return NewConfigurationError("gcs bucket is required", nil)
	}
	return nil
}

// AzureConfig for Azure Blob Storage upload
type AzureConfig struct {
	AccountName string `mapstructure:"account_name" yaml:"account_name"`
	AccountKey  string `mapstructure:"account_key" yaml:"account_key"`
	Container   string `mapstructure:"container" yaml:"container"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix"`
}

// Validate checks required Azure fields
func (c *AzureConfig) Validate() error {
	if c.AccountName == "" || c.AccountKey == "" {
		return NewConfigurationError("azure account name and key are required", nil)
	}
	if c.Container == "" {
		return NewConfigurationError("azure container is required", nil)
	}
	return nil
}

// NotifyConfig configures the optional terminal-outcome webhook.
type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url" yaml:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SetDefaults fills unset fields with sensible values.
func (c *SystemConfig) SetDefaults() {
	if c.Defaults.Codec == "" {
		c.Defaults.Codec = string(CodecGzip)
	}
	if c.Defaults.BaseName == "" {
		c.Defaults.BaseName = "backup"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "normal"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 10 * time.Second
	}
}

// Validate rejects inconsistent configuration before any job runs.
func (c *SystemConfig) Validate() error {
	if _, err := ParseCodec(c.Defaults.Codec); err != nil {
		return err
	}

	switch c.Upload.Provider {
	case "":
		// Upload disabled.
	case "s3":
		if c.Upload.S3 == nil {
			return NewConfigurationError("s3 upload selected but not configured", nil)
		}
		return c.Upload.S3.Validate()
	case "gcs":
		if c.Upload.GCS == nil {
			return NewConfigurationError("gcs upload selected but not configured", nil)
		}
		return c.Upload.GCS.Validate()
	case "azure":
		if c.Upload.Azure == nil {
			return NewConfigurationError("azure upload selected but not configured", nil)
		}
		return c.Upload.Azure.Validate()
	default:
		return NewConfigurationError(fmt.Sprintf("unsupported upload provider: %s", c.Upload.Provider), nil)
	}
	return nil
}
