package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Notify   NotifyConfig   `mapstructure:"notify"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AllowedOrigin is the frontend origin accepted by CORS. "*" allows any.
	AllowedOrigin          string `mapstructure:"allowed_origin"           validate:"required"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL                    string `mapstructure:"url"                       validate:"required,url"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"            validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"            validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"  validate:"required,min=32"`
	BcryptCost int    `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
	// Lifetime of the token returned by registration.
	RegisterTokenLifetimeMinutes int `mapstructure:"register_token_lifetime_minutes" validate:"required,gt=0"`
	// Lifetime of the token returned by login.
	LoginTokenLifetimeMinutes int `mapstructure:"login_token_lifetime_minutes" validate:"required,gt=0"`
	// Per-client request budget for the register and login endpoints.
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute" validate:"gt=0"`
	LoginBurst         int `mapstructure:"login_burst"           validate:"gt=0"`
}

// NotifyConfig selects and tunes the real-time notification backend.
type NotifyConfig struct {
	Backend     string `mapstructure:"backend"      validate:"required,oneof=memory redis"`
	RedisURL    string `mapstructure:"redis_url"    validate:"required_if=Backend redis"`
	QueueSize   int    `mapstructure:"queue_size"   validate:"gt=0"`
	WorkerCount int    `mapstructure:"worker_count" validate:"gt=0"`
}
