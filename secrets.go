package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretFetcher resolves a named secret to its plaintext value.
type SecretFetcher interface {
	FetchSecret(secretID string) (string, error)
}

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretFetcher reads secrets from AWS Secrets Manager. A secret may hold the value itself or
// a JSON object with a "mnemonic" key.
type AWSSecretFetcher struct {
	ctx    context.Context
	client secretsManagerAPI
}

func NewAWSSecretFetcher(ctx context.Context, region string) (*AWSSecretFetcher, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if region != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return &AWSSecretFetcher{ctx: ctx, client: secretsmanager.NewFromConfig(cfg)}, nil
}

func (fetcher *AWSSecretFetcher) FetchSecret(secretID string) (string, error) {
	output, err := fetcher.client.GetSecretValue(fetcher.ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %s: %w", secretID, err)
	}
	if output.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretID)
	}

	value := strings.TrimSpace(*output.SecretString)
	if strings.HasPrefix(value, "{") {
		var wrapped struct {
			Mnemonic string `json:"mnemonic"`
		}
		if err := json.Unmarshal([]byte(value), &wrapped); err == nil && wrapped.Mnemonic != "" {
			return wrapped.Mnemonic, nil
		}
	}
	return value, nil
}
