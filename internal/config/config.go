package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"    validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=0,lte=31"`
}

// CacheConfig contains the cache backend selection and its tuning knobs.
//
// The TTL bounds how long a cached task or listing is trusted; it is a
// staleness cap, not a correctness requirement, since every mutation
// invalidates eagerly.
type CacheConfig struct {
	// Backend selects the cache implementation: "redis" for a shared
	// Redis server, "memory" for the embedded in-process cache.
	Backend string `mapstructure:"backend" validate:"required,oneof=redis memory"`

	// Codec selects the cache value encoding.
	Codec string `mapstructure:"codec" validate:"required,oneof=msgpack cbor json"`

	// TTLSeconds is the entry time-to-live.
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"required,gt=0"`

	// RedisAddr is the host:port of the Redis server. Required when the
	// backend is "redis".
	RedisAddr     string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`

	// Per-call timeouts for the Redis client, in milliseconds. Kept small
	// so a stalled cache cannot consume a request's whole deadline.
	DialTimeoutMs  int `mapstructure:"dial_timeout_ms"  validate:"gt=0"`
	ReadTimeoutMs  int `mapstructure:"read_timeout_ms"  validate:"gt=0"`
	WriteTimeoutMs int `mapstructure:"write_timeout_ms" validate:"gt=0"`

	// MemoryMaxSizeMB caps the embedded cache's memory usage. Zero means
	// unlimited.
	MemoryMaxSizeMB int `mapstructure:"memory_max_size_mb" validate:"gte=0"`
}
