package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Resend    ResendConfig    `yaml:"resend"`
	Vault     VaultConfig     `yaml:"vault"`
	Quota     QuotaConfig     `yaml:"quota"`
	Nurture   NurtureConfig   `yaml:"nurture"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig holds the shared secret used to verify Supabase-issued
// HS256 access tokens. The backend never issues tokens itself.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type AnthropicConfig struct {
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	PreviewMaxTokens int    `yaml:"preview_max_tokens"`
	FullMaxTokens    int    `yaml:"full_max_tokens"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

// StripeConfig carries one monthly and one annual price per paid tier.
type StripeConfig struct {
	SecretKey              string `yaml:"secret_key"`
	WebhookSecret          string `yaml:"webhook_secret"`
	SuccessURL             string `yaml:"success_url"`
	CancelURL              string `yaml:"cancel_url"`
	ProMonthlyPriceID      string `yaml:"pro_monthly_price_id"`
	ProAnnualPriceID       string `yaml:"pro_annual_price_id"`
	TeamMonthlyPriceID     string `yaml:"team_monthly_price_id"`
	TeamAnnualPriceID      string `yaml:"team_annual_price_id"`
	BusinessMonthlyPriceID string `yaml:"business_monthly_price_id"`
	BusinessAnnualPriceID  string `yaml:"business_annual_price_id"`
}

type ResendConfig struct {
	APIKey      string `yaml:"api_key"`
	FromAddress string `yaml:"from_address"`
}

// VaultConfig configures optional archival of uploaded originals to
// object storage. When Enabled is false the service runs without MinIO.
type VaultConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

// QuotaConfig controls the monthly usage reset job.
type QuotaConfig struct {
	ResetEnabled bool   `yaml:"reset_enabled"`
	ResetCron    string `yaml:"reset_cron"`
}

// NurtureConfig controls the lead drip sweep. Secret gates the HTTP
// trigger; the in-process cron runs only when Enabled is true.
type NurtureConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Secret  string `yaml:"secret"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnv lets environment variables override secrets so they never
// have to live in the config file.
func (c *Config) applyEnv() {
	setFromEnv(&c.Database.URL, "DATABASE_URL")
	setFromEnv(&c.Auth.JWTSecret, "SUPABASE_JWT_SECRET")
	setFromEnv(&c.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setFromEnv(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setFromEnv(&c.Stripe.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setFromEnv(&c.Resend.APIKey, "RESEND_API_KEY")
	setFromEnv(&c.Vault.AccessKey, "VAULT_ACCESS_KEY")
	setFromEnv(&c.Vault.SecretKey, "VAULT_SECRET_KEY")
	setFromEnv(&c.Nurture.Secret, "CRON_SECRET")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Anthropic.PreviewMaxTokens == 0 {
		c.Anthropic.PreviewMaxTokens = 1000
	}
	if c.Anthropic.FullMaxTokens == 0 {
		c.Anthropic.FullMaxTokens = 8000
	}
	if c.Anthropic.TimeoutSeconds == 0 {
		c.Anthropic.TimeoutSeconds = 120
	}
	if c.Vault.ExpireDays == 0 {
		c.Vault.ExpireDays = 7
	}
	if c.Quota.ResetCron == "" {
		c.Quota.ResetCron = "0 0 1 * *"
	}
	if c.Nurture.Cron == "" {
		c.Nurture.Cron = "0 */4 * * *"
	}
}
