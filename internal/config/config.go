package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BucketAvatars  = "avatars"
	BucketProducts = "products"
	BucketServices = "services"
	BucketEvents   = "events"
)

type Config struct {
	Env           string        `yaml:"env" env:"DORMBIZ_ENV" env-default:"local"`
	HTTPServer    HTTPServer    `yaml:"http_server"`
	Postgres      Postgres      `yaml:"postgres"`
	JWT           JWT           `yaml:"jwt"`
	Session       Session       `yaml:"session"`
	ES            ES            `yaml:"elasticsearch"`
	Minio         Minio         `yaml:"minio"`
	Payments      Payments      `yaml:"payments"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
	Chat          Chat          `yaml:"chat"`
	AllowedOrigin []string      `yaml:"allowed_origins" env-default:"http://localhost:3000"`
	UploadLimit   int64         `yaml:"upload_limit_bytes" env-default:"5242880"`
	ShutdownAfter time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
	Timezone      string        `yaml:"timezone" env:"DORMBIZ_TZ" env-default:"UTC"`
}

type Minio struct {
	Endpoint  string                  `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"minio:9000"`
	AccessKey string                  `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string                  `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL    bool                    `yaml:"use_ssl"`
	Buckets   map[string]BucketConfig `yaml:"buckets"`
}

type BucketConfig struct {
	Name       string        `yaml:"name"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

type ES struct {
	Hosts         []string `yaml:"hosts"`
	ProductIndex  string   `yaml:"product_index" env-default:"products"`
	ServiceIndex  string   `yaml:"service_index" env-default:"services"`
	Username      string   `yaml:"username" env-default:"elastic"`
	Password      string   `yaml:"password" env:"ES_PASSWORD"`
	DisableSearch bool     `yaml:"disable"`
}

type JWT struct {
	SecretKey  string        `yaml:"secret_key" env:"JWT_SECRET"`
	Issuer     string        `yaml:"issuer" env-default:"dormbiz"`
	AccessTTL  time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_token_ttl" env-default:"720h"`
}

type Session struct {
	CookieName string `yaml:"cookie_name" env-default:"dormbiz_session"`
	Domain     string `yaml:"domain"`
	Secure     bool   `yaml:"secure"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Payments struct {
	StripeSecret        string        `yaml:"stripe_webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	StripeTolerance     time.Duration `yaml:"stripe_tolerance" env-default:"5m"`
	PaystackSecret      string        `yaml:"paystack_secret_key" env:"PAYSTACK_SECRET_KEY"`
	LemonSqueezySecret  string        `yaml:"lemonsqueezy_webhook_secret" env:"LEMONSQUEEZY_WEBHOOK_SECRET"`
	DefaultPlan         string        `yaml:"default_plan" env-default:"premium"`
	MaxWebhookBodyBytes int64         `yaml:"max_webhook_body_bytes" env-default:"1048576"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

type Chat struct {
	SendQueue    int           `yaml:"send_queue" env-default:"32"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
	PingInterval time.Duration `yaml:"ping_interval" env-default:"30s"`
}

func (b Minio) Bucket(kind string) BucketConfig {
	bc, ok := b.Buckets[kind]
	if !ok || bc.Name == "" {
		bc.Name = "dormbiz-" + kind
	}
	if bc.PresignTTL == 0 {
		bc.PresignTTL = time.Hour
	}
	return bc
}

// Location is the campus time zone used to read weekly availability.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func MustLoad() *Config {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Can not read config file %s", err)
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, err
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
