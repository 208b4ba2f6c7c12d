package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB   int    `mapstructure:"REDIS_CACHE_DB"`
	RedisBillingDB int    `mapstructure:"REDIS_BILLING_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Billing configuration. Monetary values are in øre.
	VATRatePercent       int    `mapstructure:"VAT_RATE_PERCENT"`
	BookingDueDays       int    `mapstructure:"BOOKING_DUE_DAYS"`
	SubscriptionDueDays  int    `mapstructure:"SUBSCRIPTION_DUE_DAYS"`
	DunningInterval      string `mapstructure:"DUNNING_INTERVAL"`
	BillingCron          string `mapstructure:"BILLING_CRON"`
	DaysBeforeDue        int    `mapstructure:"DUNNING_DAYS_BEFORE_DUE"`
	DaysAfterOverdue     []int  `mapstructure:"DUNNING_DAYS_AFTER_OVERDUE"`
	FinalNoticeAfterDays int    `mapstructure:"DUNNING_FINAL_NOTICE_AFTER_DAYS"`

	// SMTP configuration for outbound billing mail.
	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUser      string `mapstructure:"SMTP_USER"`
	SMTPPassword  string `mapstructure:"SMTP_PASSWORD"`
	SMTPFromEmail string `mapstructure:"SMTP_FROM_EMAIL"`

	// Stripe webhook verification.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Shared secret for externally scheduled sweep triggers.
	CronSecret string `mapstructure:"CRON_SECRET"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_BILLING_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("VAT_RATE_PERCENT", 25)
	viper.SetDefault("BOOKING_DUE_DAYS", 14)
	viper.SetDefault("SUBSCRIPTION_DUE_DAYS", 30)
	viper.SetDefault("DUNNING_INTERVAL", "@every 6h")
	viper.SetDefault("BILLING_CRON", "0 0 * * *")
	viper.SetDefault("DUNNING_DAYS_BEFORE_DUE", 7)
	viper.SetDefault("DUNNING_DAYS_AFTER_OVERDUE", []int{7, 14, 30})
	viper.SetDefault("DUNNING_FINAL_NOTICE_AFTER_DAYS", 45)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM_EMAIL", "faktura@lejio.dk")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
