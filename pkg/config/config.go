package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Dispatch     DispatchConfig
	Stripe       StripeConfig
	FCM          FCMConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FRESHFOLD_APP_ENV" required:"true"`
	Port         string `envconfig:"FRESHFOLD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FRESHFOLD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FRESHFOLD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FRESHFOLD_DB_DSN"`
	Driver string `envconfig:"FRESHFOLD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FRESHFOLD_DB_HOST"`
	LegacyPort     int    `envconfig:"FRESHFOLD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FRESHFOLD_DB_USER"`
	LegacyPassword string `envconfig:"FRESHFOLD_DB_PASSWORD"`
	LegacyName     string `envconfig:"FRESHFOLD_DB_NAME"`
	LegacySSLMode  string `envconfig:"FRESHFOLD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHFOLD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHFOLD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHFOLD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHFOLD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRESHFOLD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FRESHFOLD_REDIS_ADDR"`
	Password     string        `envconfig:"FRESHFOLD_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRESHFOLD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRESHFOLD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRESHFOLD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRESHFOLD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRESHFOLD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRESHFOLD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DispatchConfig holds the matching radius and settlement commission rates.
// Cut percentages apply to the order total kept in minor currency units.
type DispatchConfig struct {
	RadiusKm                 float64       `envconfig:"FRESHFOLD_DISPATCH_RADIUS_KM" default:"10"`
	DriverCutPercent         int64         `envconfig:"FRESHFOLD_DRIVER_CUT_PERCENT" default:"10"`
	LaundromatCutPercent     int64         `envconfig:"FRESHFOLD_LAUNDROMAT_CUT_PERCENT" default:"60"`
	LaundromatSelfCutPercent int64         `envconfig:"FRESHFOLD_LAUNDROMAT_SELF_CUT_PERCENT" default:"80"`
	LiveLocationTTL          time.Duration `envconfig:"FRESHFOLD_DRIVER_LOCATION_TTL" default:"5m"`
}

func (d DispatchConfig) validate() error {
	if d.RadiusKm <= 0 {
		return fmt.Errorf("dispatch radius must be positive, got %v", d.RadiusKm)
	}
	for name, pct := range map[string]int64{
		"driver cut":          d.DriverCutPercent,
		"laundromat cut":      d.LaundromatCutPercent,
		"laundromat self cut": d.LaundromatSelfCutPercent,
	} {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%s percent out of range: %d", name, pct)
		}
	}
	if d.DriverCutPercent+d.LaundromatCutPercent > 100 {
		return fmt.Errorf("driver and laundromat cuts exceed 100%%")
	}
	return nil
}

type StripeConfig struct {
	APIKey string `envconfig:"FRESHFOLD_STRIPE_API_KEY"`
	Env    string `envconfig:"FRESHFOLD_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FCMConfig struct {
	ProjectID       string `envconfig:"FRESHFOLD_FCM_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FRESHFOLD_FCM_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"FRESHFOLD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FRESHFOLD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FRESHFOLD_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
