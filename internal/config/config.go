package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DBConfigはDB接続設定
type DBConfig struct {
	Driver     string // postgres / sqlite
	SQLitePath string
	URL        string // DATABASE_URL（あれば優先）

	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string

	MaxOpenConns int
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from POSTGRES_*.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string

	DB DBConfig

	JWTSecret string        // JWT署名シークレット
	JWTTTL    time.Duration // アクセストークン有効期間

	SessionKey     string
	CSRFKey        string
	CookieSecure   bool
	TrustedOrigins []string
	// X-Forwarded-Forを信用するプロキシ（空なら接続元IPだけ）
	TrustedProxies []*net.IPNet

	PublicBaseURL       string // 追跡URLの組み立てに使う
	StoreWhatsAppNumber string
	PhoneCountryCode    string
	// store_settingsに無いときの送料
	DefaultDeliveryFee decimal.Decimal

	RedisAddr string

	KafkaBrokers    []string
	KafkaOrderTopic string

	SweepInterval time.Duration
	SweepLockTTL  time.Duration

	VerifyLimitPerMinute int
	VerifyLimitPerHour   int
}

func (c Config) IsDev() bool {
	return c.GoEnv == "dev" || c.GoEnv == "test"
}

// Loadは .env（あれば）と環境変数から読む
func Load() (Config, error) {
	//.envがなくてもエラーにしない
	_ = godotenv.Load()

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "storefront.db")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)

	v.SetDefault("JWT_TTL", "15m")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("PHONE_COUNTRY_CODE", "62")
	v.SetDefault("DEFAULT_DELIVERY_FEE", "10000")

	v.SetDefault("KAFKA_ORDER_TOPIC", "order-status")

	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("SWEEP_LOCK_TTL", "5m")

	v.SetDefault("VERIFY_LIMIT_PER_MINUTE", 5)
	v.SetDefault("VERIFY_LIMIT_PER_HOUR", 10)
	return v
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:     v.GetString("PORT"),
		GoEnv:    v.GetString("GO_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DB: DBConfig{
			Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
			SQLitePath:   v.GetString("SQLITE_PATH"),
			URL:          v.GetString("DATABASE_URL"),
			User:         v.GetString("POSTGRES_USER"),
			Password:     v.GetString("POSTGRES_PASSWORD"),
			Name:         v.GetString("POSTGRES_DB"),
			Host:         v.GetString("POSTGRES_HOST"),
			Port:         v.GetInt("POSTGRES_PORT"),
			SSLMode:      v.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		},

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		SessionKey:     v.GetString("SESSION_KEY"),
		CSRFKey:        v.GetString("CSRF_KEY"),
		CookieSecure:   v.GetBool("COOKIE_SECURE"),
		TrustedOrigins: splitList(v.GetString("TRUSTED_ORIGINS")),

		PublicBaseURL:       strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		StoreWhatsAppNumber: v.GetString("STORE_WHATSAPP_NUMBER"),
		PhoneCountryCode:    v.GetString("PHONE_COUNTRY_CODE"),

		RedisAddr: v.GetString("REDIS_ADDR"),

		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaOrderTopic: v.GetString("KAFKA_ORDER_TOPIC"),

		SweepInterval: v.GetDuration("SWEEP_INTERVAL"),
		SweepLockTTL:  v.GetDuration("SWEEP_LOCK_TTL"),

		VerifyLimitPerMinute: v.GetInt("VERIFY_LIMIT_PER_MINUTE"),
		VerifyLimitPerHour:   v.GetInt("VERIFY_LIMIT_PER_HOUR"),
	}

	fee, err := decimal.NewFromString(strings.TrimSpace(v.GetString("DEFAULT_DELIVERY_FEE")))
	if err != nil || fee.IsNegative() {
		return Config{}, errors.New("DEFAULT_DELIVERY_FEE must be a non-negative number")
	}
	cfg.DefaultDeliveryFee = fee

	proxies, err := parseTrustedProxies(splitList(v.GetString("TRUSTED_PROXIES")))
	if err != nil {
		return Config{}, err
	}
	cfg.TrustedProxies = proxies

	//開発環境だけ固定値を許す
	if cfg.IsDev() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev_secret_change_me"
		}
		if cfg.SessionKey == "" {
			cfg.SessionKey = "dev_session_key_change_me_32bytes"
		}
		if cfg.CSRFKey == "" {
			cfg.CSRFKey = "dev_csrf_key_change_me_32_bytes!"
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	//必須チェック
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SessionKey == "" {
		return errors.New("SESSION_KEY is required")
	}
	if len(c.CSRFKey) != 32 {
		return errors.New("CSRF_KEY must be 32 bytes")
	}

	switch c.DB.Driver {
	case "postgres":
		if c.DB.URL == "" && (c.DB.User == "" || c.DB.Name == "") {
			return errors.New("DATABASE_URL or POSTGRES_USER/POSTGRES_DB is required")
		}
		if c.DB.MaxOpenConns <= 0 {
			return errors.New("DB_MAX_OPEN_CONNS must be positive")
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver)
	}

	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if _, err := url.ParseRequestURI(c.PublicBaseURL); err != nil {
		return fmt.Errorf("PUBLIC_BASE_URL: %w", err)
	}
	if c.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}
	//ロックTTLは実行間隔以上
	if c.SweepLockTTL < c.SweepInterval {
		return errors.New("SWEEP_LOCK_TTL must not be shorter than SWEEP_INTERVAL")
	}
	if c.VerifyLimitPerMinute <= 0 || c.VerifyLimitPerHour <= 0 {
		return errors.New("VERIFY_LIMIT_PER_MINUTE and VERIFY_LIMIT_PER_HOUR must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaOrderTopic == "" {
		return errors.New("KAFKA_ORDER_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CIDRか単一IP。単一IPは/32（IPv6は/128）として扱う
func parseTrustedProxies(items []string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, it := range items {
		if !strings.Contains(it, "/") {
			ip := net.ParseIP(it)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", it)
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(it)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}
