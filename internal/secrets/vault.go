// Package secrets loads LLM provider API keys from HashiCorp Vault.
package secrets

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/kapilwn1990/AlgoXera.Lambda.TemplateEngine/config"
)

// ProviderKeys holds the per-provider API keys stored under one secret
// path.
type ProviderKeys struct {
	Claude   string
	OpenAI   string
	DeepSeek string
}

// Client wraps the Vault client for API key retrieval.
type Client struct {
	client *api.Client
	config config.VaultConfig
}

// NewClient creates a Vault client. When Vault is disabled in config the
// caller should keep using the keys from environment configuration.
func NewClient(cfg config.VaultConfig) (*Client, error) {
	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// LoadProviderKeys reads the provider API keys from the configured KV v2
// secret path.
func (c *Client) LoadProviderKeys(ctx context.Context) (*ProviderKeys, error) {
	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read API keys from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no API keys stored at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected secret format at %s", path)
	}

	keys := &ProviderKeys{
		Claude:   stringField(data, "claude_api_key"),
		OpenAI:   stringField(data, "openai_api_key"),
		DeepSeek: stringField(data, "deepseek_api_key"),
	}
	return keys, nil
}

// KeyFor returns the key for the named provider, or empty when absent.
func (k *ProviderKeys) KeyFor(provider string) string {
	switch provider {
	case "claude":
		return k.Claude
	case "openai":
		return k.OpenAI
	case "deepseek":
		return k.DeepSeek
	default:
		return ""
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
