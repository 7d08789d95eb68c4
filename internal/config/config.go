// Package config handles loading and validation of gateway configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// DefaultCheckoutEndpoint is the provider's public checkout-creation
// endpoint, overridable per store.
const DefaultCheckoutEndpoint = "https://api-checkout.pagou.ai/public/cart"

// Config holds all gateway configuration.
// Environment determines whether store settings load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Store-specific configuration (loaded from secrets)
	Store StoreConfig
}

// StoreConfig contains store-specific settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	// ShopDomain is the storefront's public domain, both the origin
	// the mirror crawls and the shop identity sent to the provider.
	ShopDomain string `json:"shop_domain"`

	// InternalDomain is the platform-internal domain the provider uses
	// to look up the store integration. Derived from ShopDomain when
	// not set.
	InternalDomain string `json:"internal_domain"`

	// CheckoutEndpoint is the provider URL checkout carts are POSTed to.
	CheckoutEndpoint string `json:"checkout_endpoint,omitempty"`

	// Currency is the ISO code stamped on cart responses and payloads.
	Currency string `json:"currency,omitempty"`

	// Password unlocks a storefront behind the platform's coming-soon
	// gate when mirroring. Empty for public storefronts.
	Password string `json:"password,omitempty"`

	// SiteDir is the root of the mirrored site clone.
	SiteDir string `json:"site_dir"`

	// CartDataDir is where per-token cart records persist.
	CartDataDir string `json:"cart_data_dir"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) then ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     os.Getenv("STORE_ID"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		StoreID     string      `json:"store_id"`
		Store       StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StoreID:     fileConfig.StoreID,
		Store:       fileConfig.Store,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		ShopDomain:       os.Getenv("SHOP_DOMAIN"),
		InternalDomain:   os.Getenv("SHOP_INTERNAL_DOMAIN"),
		CheckoutEndpoint: os.Getenv("CHECKOUT_ENDPOINT"),
		Currency:         os.Getenv("CURRENCY"),
		Password:         os.Getenv("SHOP_PASSWORD"),
		SiteDir:          os.Getenv("SITE_DIR"),
		CartDataDir:      os.Getenv("CART_DATA_DIR"),
	}
	return nil
}

// applyDefaults fills the optional store fields.
func (c *Config) applyDefaults() {
	if c.Store.CheckoutEndpoint == "" {
		c.Store.CheckoutEndpoint = DefaultCheckoutEndpoint
	}
	if c.Store.Currency == "" {
		c.Store.Currency = "ARS"
	}
	if c.Store.SiteDir == "" {
		c.Store.SiteDir = "site"
	}
	if c.Store.CartDataDir == "" {
		c.Store.CartDataDir = "data/carts"
	}
	if c.Store.InternalDomain == "" && c.Store.ShopDomain != "" {
		c.Store.InternalDomain = internalDomain(c.Store.ShopDomain)
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.ShopDomain == "" {
		return fmt.Errorf("shop_domain is required")
	}
	if _, err := url.Parse("https://" + c.Store.ShopDomain); err != nil {
		return fmt.Errorf("invalid shop_domain: %w", err)
	}
	if !strings.HasPrefix(c.Store.CheckoutEndpoint, "https://") {
		return fmt.Errorf("checkout_endpoint must be https")
	}
	return nil
}

// internalDomain derives the platform-internal domain from the public
// one: the first label plus the platform suffix.
func internalDomain(shopDomain string) string {
	label := strings.Split(shopDomain, ".")[0]
	return label + ".myshopify.com"
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
