package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultMasterIoTKey = "MASTER_IOT_KEY_CHANGE_IN_PRODUCTION"

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	CORSAllowedOrigins []string

	AuthJWTSecret   string
	AuthAccessTTL   time.Duration
	AuthRefreshTTL  time.Duration
	QAConfigPath    string
	SeedDemoData    bool
	SnowflakeNodeID int64

	IoT       IoTConfig
	Email     EmailConfig
	Storage   StorageConfig
	MQTT      MQTTConfig
	RateLimit RateLimitConfig
	Scheduler SchedulerConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

type IoTConfig struct {
	MasterKey        string
	DeviceListPublic bool
}

type EmailConfig struct {
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	PilotNotifyTo []string
}

type StorageConfig struct {
	Driver        string
	LocalDir      string
	PublicBaseURL string
	MaxUploadSize int64

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3PathStyle       bool
	S3AccessKeyID     string
	S3SecretAccessKey string
}

type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Topic     string
	QoS       byte
}

func (c MQTTConfig) Enabled() bool {
	return strings.TrimSpace(c.BrokerURL) != ""
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	IngestRate    float64
	IngestBurst   int
}

type SchedulerConfig struct {
	Enabled     bool
	RunInterval time.Duration
	BatchSize   int
	EnabledJobs []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getenv("APP_SERVICE", "agrilink"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		HTTPAddr:           httpAddr(),
		CORSAllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		AuthJWTSecret:      strings.TrimSpace(getenv("AUTH_JWT_SECRET", "dev-secret-change-me")),
		AuthAccessTTL:      getenvDuration("AUTH_ACCESS_TTL", 15*time.Minute),
		AuthRefreshTTL:     getenvDuration("AUTH_REFRESH_TTL", 7*24*time.Hour),
		QAConfigPath:       getenv("QA_CONFIG_PATH", ""),
		SeedDemoData:       getenvBool("SEED_DEMO_DATA", false),
		SnowflakeNodeID:    getenvInt64("SNOWFLAKE_NODE_ID", 1),
		IoT: IoTConfig{
			MasterKey:        getenv("IOT_MASTER_KEY", defaultMasterIoTKey),
			DeviceListPublic: getenvBool("IOT_DEVICE_LIST_PUBLIC", true),
		},
		Email: EmailConfig{
			SMTPHost:      strings.TrimSpace(getenv("SMTP_HOST", "")),
			SMTPPort:      getenvInt("SMTP_PORT", 587),
			SMTPUsername:  getenv("SMTP_USERNAME", ""),
			SMTPPassword:  getenv("SMTP_PASSWORD", ""),
			SMTPFrom:      getenv("SMTP_FROM", "no-reply@agrilink.local"),
			PilotNotifyTo: splitList(getenv("PILOT_NOTIFY_EMAILS", "")),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getenv("STORAGE_DRIVER", "local")),
			LocalDir:      getenv("STORAGE_LOCAL_DIR", "uploads"),
			PublicBaseURL: getenv("STORAGE_PUBLIC_BASE_URL", "/uploads"),
			MaxUploadSize: getenvInt64("STORAGE_MAX_UPLOAD_BYTES", 10*1024*1024),
			S3Bucket:      strings.TrimSpace(getenv("STORAGE_S3_BUCKET", "")),
			S3Region:      getenv("STORAGE_S3_REGION", "us-east-1"),
			S3Endpoint:    strings.TrimSpace(getenv("STORAGE_S3_ENDPOINT", "")),
			S3PathStyle:   getenvBool("STORAGE_S3_PATH_STYLE", false),

			S3AccessKeyID:     strings.TrimSpace(getenv("STORAGE_S3_ACCESS_KEY_ID", "")),
			S3SecretAccessKey: strings.TrimSpace(getenv("STORAGE_S3_SECRET_ACCESS_KEY", "")),
		},
		MQTT: MQTTConfig{
			BrokerURL: strings.TrimSpace(getenv("MQTT_BROKER_URL", "")),
			ClientID:  getenv("MQTT_CLIENT_ID", "agrilink-ingest"),
			Username:  getenv("MQTT_USERNAME", ""),
			Password:  getenv("MQTT_PASSWORD", ""),
			Topic:     getenv("MQTT_TOPIC", "agrilink/+/telemetry"),
			QoS:       byte(getenvInt("MQTT_QOS", 1)),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			IngestRate:    getenvFloat("RATE_LIMIT_INGEST_RATE", 5),
			IngestBurst:   getenvInt("RATE_LIMIT_INGEST_BURST", 20),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getenvBool("SCHEDULER_ENABLED", true),
			RunInterval: getenvDuration("SCHEDULER_RUN_INTERVAL", 10*time.Minute),
			BatchSize:   getenvInt("SCHEDULER_BATCH_SIZE", 500),
			EnabledJobs: splitList(getenv("SCHEDULER_JOBS", "")),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "agrilink"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func httpAddr() string {
	if addr := strings.TrimSpace(os.Getenv("HTTP_ADDR")); addr != "" {
		return addr
	}
	return ":" + getenv("PORT", "8080")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	return int(getenvInt64(key, int64(def)))
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
