package archive

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/internal/pkg/env"
)

// Config holds the S3 settings of the run report archive
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Prefix          string
	Enabled         bool
}

// LoadConfig loads the archive configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Prefix:          strings.Trim(env.GetEnv("S3_ARCHIVE_PREFIX", "runs"), "/"),
		Enabled:         env.GetBool("S3_ARCHIVE_ENABLED", false),
	}

	// Validate required fields if the archive is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the archive is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the archive is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the archive is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if run reports should be uploaded
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey builds the key of one run report.
// Format: <prefix>/<job>/YYYY/MM/DD/<runID>.json
func (c *Config) ObjectKey(job, runID string, at time.Time) string {
	at = at.UTC()
	key := fmt.Sprintf("%s/%04d/%02d/%02d/%s.json", job, at.Year(), int(at.Month()), at.Day(), runID)
	if c.Prefix == "" {
		return key
	}
	return c.Prefix + "/" + key
}
