package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SHOP_DOMAIN", "carrefourloja.example.com")
	t.Setenv("SHOP_INTERNAL_DOMAIN", "")
	t.Setenv("CHECKOUT_ENDPOINT", "")
	t.Setenv("CURRENCY", "")
	t.Setenv("SITE_DIR", "")
	t.Setenv("CART_DATA_DIR", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
	if cfg.Store.CheckoutEndpoint != DefaultCheckoutEndpoint {
		t.Errorf("CheckoutEndpoint = %q", cfg.Store.CheckoutEndpoint)
	}
	if cfg.Store.Currency != "ARS" {
		t.Errorf("Currency = %q, want default ARS", cfg.Store.Currency)
	}
	if cfg.Store.InternalDomain != "carrefourloja.myshopify.com" {
		t.Errorf("InternalDomain = %q, want derived carrefourloja.myshopify.com", cfg.Store.InternalDomain)
	}
}

func TestLoadRequiresShopDomain(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SHOP_DOMAIN", "")
	t.Setenv("ENVIRONMENT", "development")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error without shop_domain")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": "9090",
		"log_level": "debug",
		"store": {
			"shop_domain": "store.example.com",
			"internal_domain": "mystore.myshopify.com",
			"currency": "BRL",
			"site_dir": "clone",
			"cart_data_dir": "var/carts"
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want default development", cfg.Environment)
	}
	if cfg.Store.Currency != "BRL" {
		t.Errorf("Currency = %q", cfg.Store.Currency)
	}
	if cfg.Store.InternalDomain != "mystore.myshopify.com" {
		t.Errorf("explicit InternalDomain overridden: %q", cfg.Store.InternalDomain)
	}
	if cfg.Store.SiteDir != "clone" {
		t.Errorf("SiteDir = %q", cfg.Store.SiteDir)
	}
}

func TestLoadFromFileRejectsInsecureEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"store": {"shop_domain": "store.example.com", "checkout_endpoint": "http://insecure.example.com/cart"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error for non-https checkout endpoint")
	}
}

func TestProductionRequiresGCPProject(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("STORE_ID", "store-1")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("expected error without GCP_PROJECT in production")
	}
}
