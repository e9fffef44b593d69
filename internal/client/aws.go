// Package client builds the AWS service clients. Clients are constructed
// once at startup and passed down explicitly; nothing here is cached
// globally.
package client

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AuthOptions selects how AWS configuration is resolved. Empty fields
// fall back to the SDK's default resolution chain.
type AuthOptions struct {
	Region  string
	Profile string
}

// NewOptions translates AuthOptions plus the usual environment variables
// into config load options. A profile (flag or AWS_PROFILE) wins over
// static AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY credentials.
func NewOptions(o AuthOptions) []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if o.Region != "" {
		opts = append(opts, config.WithRegion(o.Region))
	}

	profile := o.Profile
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
		return opts
	}

	key := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN"))))
	}
	return opts
}

// Load resolves the AWS configuration for the given options.
func Load(ctx context.Context, o AuthOptions) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, NewOptions(o)...)
}

// NewLogs returns a CloudWatch Logs client.
func NewLogs(cfg aws.Config) *cloudwatchlogs.Client {
	return cloudwatchlogs.NewFromConfig(cfg)
}

// NewS3 returns an S3 client.
func NewS3(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}
