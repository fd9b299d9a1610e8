package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "drop"(删除重建)

	// Server
	ServerPort string

	// Redis
	RedisHost string
	RedisPort string
	RedisDB   int

	// MQTT
	MQTTBrokerURL  string
	MQTTClientID   string
	MQTTUsername   string
	MQTTPassword   string
	MQTTSSLEnabled bool
	MQTTCACertPath string

	// JWT Authentication
	JWTSecretKey string

	// 报警核心参数
	AlertCountdownSeconds int           // 倒计时告警的默认秒数
	AlertCountdownTick    time.Duration // 倒计时步进间隔
	AlertResolveDelay     time.Duration // 派发完成后自动进入resolved的延迟
	DispatchStagger       time.Duration // 动作之间的间隔发送延迟
	GestureTapWindow      time.Duration // 双击判定窗口
	GestureHoldDuration   time.Duration // 长按判定时长

	// 位置共享
	ShareDefaultTTL  time.Duration // 实时位置共享令牌默认有效期
	PositionTTL      time.Duration // 最近上报位置的缓存有效期
	SettingsCacheTTL time.Duration // 用户设置缓存有效期

	// 报警派发目标
	PoliceDispatchNumber string // 报警电话号码

	// Admin
	DefaultUserPassword string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		// Environment type
		EnvType: envType,

		// Database config - use environment-specific variables if available
		DBHost:          getEnv(prefix+"DB_HOST", getEnv("DB_HOST", "localhost")),
		DBUser:          getEnv(prefix+"DB_USER", getEnv("DB_USER", "root")),
		DBPassword:      getEnv(prefix+"DB_PASSWORD", getEnv("DB_PASSWORD", "")),
		DBName:          getEnv(prefix+"DB_NAME", getEnv("DB_NAME", "guardian_db")),
		DBPort:          getEnv(prefix+"DB_PORT", getEnv("DB_PORT", "3306")),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", getEnv("DB_MIGRATION_MODE", "auto")),

		// Server config
		ServerPort: getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),

		// Redis config
		RedisHost: getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort: getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		// MQTT config
		MQTTBrokerURL:  getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "guardian-angel-service"),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTSSLEnabled: getEnvAsBool("MQTT_SSL_ENABLED", false),
		MQTTCACertPath: getEnv("MQTT_CA_CERT_PATH", ""),

		// JWT Config
		JWTSecretKey: getEnv("JWT_SECRET_KEY", "guardian-angel-secret-key-change-in-production"),

		// 报警参数：30秒倒计时、1秒步进、500ms间隔派发、5秒自动解除
		AlertCountdownSeconds: getEnvAsInt("ALERT_COUNTDOWN_SECONDS", 30),
		AlertCountdownTick:    getEnvAsDuration("ALERT_COUNTDOWN_TICK", time.Second),
		AlertResolveDelay:     getEnvAsDuration("ALERT_RESOLVE_DELAY", 5*time.Second),
		DispatchStagger:       getEnvAsDuration("DISPATCH_STAGGER", 500*time.Millisecond),
		GestureTapWindow:      getEnvAsDuration("GESTURE_TAP_WINDOW", 300*time.Millisecond),
		GestureHoldDuration:   getEnvAsDuration("GESTURE_HOLD_DURATION", 3*time.Second),

		// 位置共享默认30分钟
		ShareDefaultTTL:  getEnvAsDuration("SHARE_DEFAULT_TTL", 30*time.Minute),
		PositionTTL:      getEnvAsDuration("POSITION_TTL", 2*time.Minute),
		SettingsCacheTTL: getEnvAsDuration("SETTINGS_CACHE_TTL", 10*time.Minute),

		PoliceDispatchNumber: getEnv("POLICE_DISPATCH_NUMBER", "911"),

		// Admin Config
		DefaultUserPassword: getEnv("DEFAULT_USER_PASSWORD", "guardian123"),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true&multiStatements=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as duration with default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
