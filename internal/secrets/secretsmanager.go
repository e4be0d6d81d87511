// Package secrets retrieves the payer signing credential. The key is read
// once at startup and held in memory only; it is never written anywhere.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/core-coin/gutta/internal/models"
)

// Manager implements models.SecretProvider on AWS Secrets Manager. The
// secret value is a JSON document with a "private_key" field.
type Manager struct {
	client *secretsmanager.Client
}

func NewManager(cfg aws.Config) *Manager {
	return &Manager{client: secretsmanager.NewFromConfig(cfg)}
}

func (m *Manager) Get(ctx context.Context, name string) (string, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrSecretUnavailable, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("%w: secret %s has no string value", models.ErrSecretUnavailable, name)
	}

	var payload struct {
		PrivateKey string `json:"private_key"`
	}
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return "", fmt.Errorf("%w: failed to parse secret %s: %v", models.ErrSecretUnavailable, name, err)
	}
	if payload.PrivateKey == "" {
		return "", fmt.Errorf("%w: secret %s is missing private_key", models.ErrSecretUnavailable, name)
	}

	return payload.PrivateKey, nil
}
