// Package awsconfig builds the aws.Config shared by the DynamoDB and S3
// drivers.
package awsconfig

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DefaultRegion is used when the descriptor names none.
const DefaultRegion = "us-east-1"

// Load resolves region and credentials. Static keys from the descriptor take
// precedence over the default credential chain; the SDK retryer is replaced
// with aws.NopRetryer so that every call is attempted once.
func Load(ctx context.Context, c adapter.ConnectionConfig) (aws.Config, error) {
	region := c.Region
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}

	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken),
		))
	}
	if profile := c.OptionString("profile", ""); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	if c.Timeout > 0 {
		opts = append(opts, config.WithHTTPClient(&http.Client{Timeout: c.Timeout}))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}
