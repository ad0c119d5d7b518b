package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"go.uber.org/zap"
)

// VaultClient reads secrets from Azure Key Vault
type VaultClient struct {
	client    *azsecrets.Client
	vaultName string
	logger    *zap.Logger
}

// VaultConfig holds configuration for the vault client
type VaultConfig struct {
	VaultName string
}

// NewVaultClient creates a Key Vault client using DefaultAzureCredential
// (environment credentials, managed identity, or the Azure CLI login).
func NewVaultClient(cfg *VaultConfig, logger *zap.Logger) (*VaultClient, error) {
	if cfg.VaultName == "" {
		return nil, fmt.Errorf("vault name is required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		logger.Error("Failed to create Azure credential", zap.Error(err))
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	vaultURL := fmt.Sprintf("https://%s.vault.azure.net/", cfg.VaultName)
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		logger.Error("Failed to create Key Vault client", zap.Error(err))
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	logger.Info("Azure Key Vault client initialized", zap.String("vault_url", vaultURL))

	return &VaultClient{
		client:    client,
		vaultName: cfg.VaultName,
		logger:    logger,
	}, nil
}

// Fetch retrieves the latest version of a secret
func (v *VaultClient) Fetch(ctx context.Context, secretName string) (string, error) {
	resp, err := v.client.GetSecret(ctx, secretName, "", nil)
	if err != nil {
		v.logger.Error("Failed to get secret from Key Vault",
			zap.String("secret_name", secretName),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to get secret '%s': %w", secretName, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("secret '%s' has no value", secretName)
	}
	return *resp.Value, nil
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// CachedFetcher memoizes successful lookups of another fetcher for a TTL
type CachedFetcher struct {
	next  Fetcher
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// NewCachedFetcher wraps next with a TTL cache (5 minutes when ttl is zero)
func NewCachedFetcher(next Fetcher, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedFetcher{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cachedSecret),
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, name string) (string, error) {
	c.mu.RLock()
	cached, ok := c.cache[name]
	c.mu.RUnlock()
	if ok && c.now().Before(cached.expiresAt) {
		return cached.value, nil
	}

	value, err := c.next.Fetch(ctx, name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache[name] = cachedSecret{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return value, nil
}

// Clear drops all cached secrets
func (c *CachedFetcher) Clear() {
	c.mu.Lock()
	c.cache = make(map[string]cachedSecret)
	c.mu.Unlock()
}
