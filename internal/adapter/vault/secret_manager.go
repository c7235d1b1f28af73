package vault

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// SecretManager reads operator secrets (DB DSN, JWT signing key, Stripe key)
// from Vault's KV v2 engine. Callers fall back to env vars when Vault is
// unreachable — Vault is an optional boot dependency, not a hard one.
type SecretManager struct {
	client *api.Client
}

func NewSecretManager(address, token string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client}, nil
}

func (sm *SecretManager) readString(path, key string) (string, error) {
	secret, err := sm.client.Logical().Read(path)
	if err != nil {
		return "", err
	}
	if secret == nil || secret.Data["data"] == nil {
		return "", fmt.Errorf("vault: no data at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: malformed secret at %s", path)
	}

	value, ok := data[key].(string)
	if !ok {
		return "", fmt.Errorf("vault: key %q not found at %s", key, path)
	}
	return value, nil
}

func (sm *SecretManager) GetDatabaseDSN() (string, error) {
	return sm.readString("secret/data/database", "connection_string")
}

func (sm *SecretManager) GetJWTSecret() (string, error) {
	return sm.readString("secret/data/jwt", "secret")
}

func (sm *SecretManager) GetStripeSecretKey() (string, error) {
	return sm.readString("secret/data/stripe", "secret_key")
}
