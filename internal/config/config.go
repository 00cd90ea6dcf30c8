package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	applog "handmade/internal/log"
)

// Config is read by viper from app.env (if present) and the environment.
type Config struct {
	Port     string `mapstructure:"PORT"`
	DBDSN    string `mapstructure:"DB_DSN"`
	LogFile  string `mapstructure:"LOG_FILE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	BodyLimit    int  `mapstructure:"BODY_LIMIT"`
	RateMax      int  `mapstructure:"RATE_MAX"`
	LoginRateMax int  `mapstructure:"LOGIN_RATE_MAX"`

	// Rating cache; empty address disables it.
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RatingCacheTTL time.Duration `mapstructure:"RATING_CACHE_TTL"`

	// Event publishing; empty URL disables it.
	RabbitMQURL        string        `mapstructure:"RABBITMQ_URL"`
	EventsExchange     string        `mapstructure:"EVENTS_EXCHANGE"`
	EventsExchangeType string        `mapstructure:"EVENTS_EXCHANGE_TYPE"`
	ReconnectDelay     time.Duration `mapstructure:"RECONNECT_DELAY"`
	MaxReconnectWait   time.Duration `mapstructure:"MAX_RECONNECT_WAIT"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DSN", "handmade.db")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("BODY_LIMIT", 1<<20)
	v.SetDefault("RATE_MAX", 120)
	v.SetDefault("LOGIN_RATE_MAX", 5)

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("RATING_CACHE_TTL", 5*time.Minute)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "handmade.events")
	v.SetDefault("EVENTS_EXCHANGE_TYPE", "topic")
	v.SetDefault("RECONNECT_DELAY", 2*time.Second)
	v.SetDefault("MAX_RECONNECT_WAIT", 30*time.Second)
}

// Load reads app.env from path (optional) and overlays environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err == nil {
		applog.Logger().Info().Str("file", v.ConfigFileUsed()).Msg("using config file")
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	applog.Logger().Info().
		Str("port", cfg.Port).
		Str("db_dsn", cfg.DBDSN).
		Str("log_file", cfg.LogFile).
		Bool("redis", cfg.RedisAddr != "").
		Bool("rabbitmq", cfg.RabbitMQURL != "").
		Msg("config loaded")
	return cfg, nil
}
