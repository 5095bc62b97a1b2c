package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	JWT          JWT
	Storage      Storage
	AI           AI
	SystemAPIKey string
	RateLimit    RateLimit
	Log          Log
}

type Server struct {
	Port        string
	Env         string
	CorsOrigins []string
}

type Database struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type JWT struct {
	Secret    string
	ExpiresIn time.Duration
}

type Storage struct {
	Provider       string // supabase | minio
	SupabaseURL    string
	SupabaseKey    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	BucketLecturas string
	BucketTareas   string
	MaxUploadMB    int64
}

type AI struct {
	GeminiApiKey      string
	Model             string
	LiteralCount      int
	InferentialCount  int
	CriticalCount     int
	Timeout           time.Duration
	Workers           int
	QueueSize         int
	DisableBackground bool
}

type RateLimit struct {
	Requests int
	Window   time.Duration
}

type Log struct {
	Level string
	File  string
}

func (c *Config) IsTest() bool {
	return c.Server.Env == "test"
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// BackgroundAIEnabled reports whether question generation jobs should run after an assignment.
func (c *Config) BackgroundAIEnabled() bool {
	return !c.IsTest() && !c.AI.DisableBackground
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("CORS_ORIGINS", "*")

	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	viper.SetDefault("DATABASE_CONN_MAX_LIFETIME", time.Hour)
	viper.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", 10*time.Minute)

	viper.SetDefault("JWT_EXPIRES_IN", 24*time.Hour)

	viper.SetDefault("STORAGE_PROVIDER", "supabase")
	viper.SetDefault("SUPABASE_BUCKET_LECTURAS", "lecturas")
	viper.SetDefault("SUPABASE_BUCKET_TAREAS", "tareas")
	viper.SetDefault("MAX_UPLOAD_MB", 20)

	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("AI_QUESTIONS_LITERAL", 3)
	viper.SetDefault("AI_QUESTIONS_INFERENTIAL", 3)
	viper.SetDefault("AI_QUESTIONS_CRITICAL", 6)
	viper.SetDefault("AI_TIMEOUT", 45*time.Second)
	viper.SetDefault("AI_WORKERS", 2)
	viper.SetDefault("AI_QUEUE_SIZE", 256)

	viper.SetDefault("RATE_LIMIT_REQUESTS", 120)
	viper.SetDefault("RATE_LIMIT_WINDOW", time.Minute)

	viper.SetDefault("LOG_LEVEL", "info")
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded into process environment")
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.Env = strings.ToLower(viper.GetString("APP_ENV"))
	config.Server.CorsOrigins = splitList(viper.GetString("CORS_ORIGINS"))

	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")
	config.Database.MaxIdleConns = viper.GetInt("DATABASE_MAX_IDLE_CONNS")
	config.Database.MaxOpenConns = viper.GetInt("DATABASE_MAX_OPEN_CONNS")
	config.Database.ConnMaxLifetime = viper.GetDuration("DATABASE_CONN_MAX_LIFETIME")
	config.Database.ConnMaxIdleTime = viper.GetDuration("DATABASE_CONN_MAX_IDLE_TIME")

	config.JWT.Secret = viper.GetString("JWT_SECRET")
	config.JWT.ExpiresIn = viper.GetDuration("JWT_EXPIRES_IN")

	config.Storage.Provider = strings.ToLower(viper.GetString("STORAGE_PROVIDER"))
	config.Storage.SupabaseURL = strings.TrimRight(viper.GetString("SUPABASE_URL"), "/")
	config.Storage.SupabaseKey = viper.GetString("SUPABASE_SERVICE_ROLE_KEY")
	if config.Storage.SupabaseKey == "" {
		config.Storage.SupabaseKey = viper.GetString("SUPABASE_KEY")
	}
	config.Storage.MinioEndpoint = viper.GetString("MINIO_ENDPOINT")
	config.Storage.MinioAccessKey = viper.GetString("MINIO_ACCESS_KEY")
	config.Storage.MinioSecretKey = viper.GetString("MINIO_SECRET_KEY")
	config.Storage.MinioUseSSL = viper.GetBool("MINIO_USE_SSL")
	config.Storage.BucketLecturas = viper.GetString("SUPABASE_BUCKET_LECTURAS")
	config.Storage.BucketTareas = viper.GetString("SUPABASE_BUCKET_TAREAS")
	config.Storage.MaxUploadMB = viper.GetInt64("MAX_UPLOAD_MB")

	config.AI.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.AI.Model = viper.GetString("GEMINI_MODEL")
	config.AI.LiteralCount = viper.GetInt("AI_QUESTIONS_LITERAL")
	config.AI.InferentialCount = viper.GetInt("AI_QUESTIONS_INFERENTIAL")
	config.AI.CriticalCount = viper.GetInt("AI_QUESTIONS_CRITICAL")
	config.AI.Timeout = viper.GetDuration("AI_TIMEOUT")
	config.AI.Workers = viper.GetInt("AI_WORKERS")
	config.AI.QueueSize = viper.GetInt("AI_QUEUE_SIZE")
	config.AI.DisableBackground = viper.GetBool("AI_DISABLE_BACKGROUND")

	config.SystemAPIKey = viper.GetString("SYSTEM_API_KEY")

	config.RateLimit.Requests = viper.GetInt("RATE_LIMIT_REQUESTS")
	config.RateLimit.Window = viper.GetDuration("RATE_LIMIT_WINDOW")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.File = viper.GetString("LOG_FILE")

	if config.JWT.Secret == "" {
		if config.IsProduction() {
			log.Fatal().Msg("JWT_SECRET must be set in production")
		}
		log.Warn().Msg("JWT_SECRET is not set, using an insecure development secret")
		config.JWT.Secret = "dev-secret-change-me"
	}

	log.Info().
		Str("env", config.Server.Env).
		Str("port", config.Server.Port).
		Str("db_host", config.Database.Host).
		Str("storage_provider", config.Storage.Provider).
		Str("gemini_model", config.AI.Model).
		Bool("gemini_key_set", config.AI.GeminiApiKey != "").
		Bool("background_ai", config.BackgroundAIEnabled()).
		Msg("Config loaded")
	return &config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
