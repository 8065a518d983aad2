package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Reservation  ReservationConfig
	Availability AvailabilityConfig
	Policy       PolicyConfig
	Kafka        KafkaConfig
	Metrics      MetricsConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	TimeZone     string
	MaxIdleConns int
	MaxOpenConns int
	Migrate      bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ReservationConfig selects the claim backend: "redis" or "memory".
type ReservationConfig struct {
	Backend  string
	ClaimTTL time.Duration
}

type AvailabilityConfig struct {
	GranularityMinutes int
	MaxRangeDays       int
}

// PolicyConfig is the booking policy of providers without a stored one.
type PolicyConfig struct {
	MinAdvanceHours         int
	MaxAdvanceDays          int
	CancellationWindowHours int
	CancellationFeePercent  decimal.Decimal
	AllowReschedule         bool
	RescheduleWindowHours   int
	MaxReschedules          int
	RequireDeposit          bool
	DepositPercent          decimal.Decimal
	AutoConfirm             bool
}

type KafkaConfig struct {
	Brokers string
	Topic   string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

const (
	ReservationBackendRedis  = "redis"
	ReservationBackendMemory = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("RESERVATION_BACKEND", ReservationBackendRedis)
	v.SetDefault("RESERVATION_CLAIM_TTL", "5m")

	v.SetDefault("AVAILABILITY_GRANULARITY", 0)
	v.SetDefault("AVAILABILITY_MAX_RANGE_DAYS", 62)

	v.SetDefault("BOOKING_AUTO_CONFIRM", false)
	v.SetDefault("POLICY_DEFAULT_MIN_ADVANCE_HOURS", 2)
	v.SetDefault("POLICY_DEFAULT_MAX_ADVANCE_DAYS", 90)
	v.SetDefault("POLICY_DEFAULT_CANCELLATION_WINDOW_HOURS", 24)
	v.SetDefault("POLICY_DEFAULT_CANCELLATION_FEE_PERCENT", "0")
	v.SetDefault("POLICY_DEFAULT_ALLOW_RESCHEDULE", true)
	v.SetDefault("POLICY_DEFAULT_RESCHEDULE_WINDOW_HOURS", 24)
	v.SetDefault("POLICY_DEFAULT_MAX_RESCHEDULES", 0)
	v.SetDefault("POLICY_DEFAULT_REQUIRE_DEPOSIT", false)
	v.SetDefault("POLICY_DEFAULT_DEPOSIT_PERCENT", "0")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "booking-events")

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
}

// LoadConfig reads path (usually ".env") and the environment. A missing file
// is not an error; environment variables win over the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	claimTTL, err := time.ParseDuration(v.GetString("RESERVATION_CLAIM_TTL"))
	if err != nil || claimTTL <= 0 {
		claimTTL = 5 * time.Minute
	}

	feePercent, err := decimal.NewFromString(v.GetString("POLICY_DEFAULT_CANCELLATION_FEE_PERCENT"))
	if err != nil {
		return nil, fmt.Errorf("POLICY_DEFAULT_CANCELLATION_FEE_PERCENT: %w", err)
	}
	depositPercent, err := decimal.NewFromString(v.GetString("POLICY_DEFAULT_DEPOSIT_PERCENT"))
	if err != nil {
		return nil, fmt.Errorf("POLICY_DEFAULT_DEPOSIT_PERCENT: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			TimeZone:     v.GetString("DB_TIMEZONE"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			Migrate:      v.GetBool("DB_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Reservation: ReservationConfig{
			Backend:  v.GetString("RESERVATION_BACKEND"),
			ClaimTTL: claimTTL,
		},
		Availability: AvailabilityConfig{
			GranularityMinutes: v.GetInt("AVAILABILITY_GRANULARITY"),
			MaxRangeDays:       v.GetInt("AVAILABILITY_MAX_RANGE_DAYS"),
		},
		Policy: PolicyConfig{
			MinAdvanceHours:         v.GetInt("POLICY_DEFAULT_MIN_ADVANCE_HOURS"),
			MaxAdvanceDays:          v.GetInt("POLICY_DEFAULT_MAX_ADVANCE_DAYS"),
			CancellationWindowHours: v.GetInt("POLICY_DEFAULT_CANCELLATION_WINDOW_HOURS"),
			CancellationFeePercent:  feePercent,
			AllowReschedule:         v.GetBool("POLICY_DEFAULT_ALLOW_RESCHEDULE"),
			RescheduleWindowHours:   v.GetInt("POLICY_DEFAULT_RESCHEDULE_WINDOW_HOURS"),
			MaxReschedules:          v.GetInt("POLICY_DEFAULT_MAX_RESCHEDULES"),
			RequireDeposit:          v.GetBool("POLICY_DEFAULT_REQUIRE_DEPOSIT"),
			DepositPercent:          depositPercent,
			AutoConfirm:             v.GetBool("BOOKING_AUTO_CONFIRM"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetString("KAFKA_BROKERS"),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
	}

	switch config.Reservation.Backend {
	case ReservationBackendRedis, ReservationBackendMemory:
	default:
		return nil, fmt.Errorf("RESERVATION_BACKEND %q: want %q or %q", config.Reservation.Backend, ReservationBackendRedis, ReservationBackendMemory)
	}

	return config, nil
}
