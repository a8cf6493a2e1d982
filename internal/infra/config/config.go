package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv         string        `envconfig:"APP_ENV" default:"dev"`
	Port           int           `envconfig:"PORT" default:"8000"`
	MetricsAddr    string        `envconfig:"METRICS_ADDR" default:":9090"`
	RequestTimeout time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"5m"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	News struct {
		APIKey   string        `envconfig:"NEWS_API_KEY"`
		URL      string        `envconfig:"NEWS_API_URL" default:"https://newsapi.org/v2/everything"`
		Timeout  time.Duration `envconfig:"NEWS_API_TIMEOUT" default:"15s"`
		Language string        `envconfig:"NEWS_LANGUAGE" default:"en"`
		PageSize int           `envconfig:"NEWS_PAGE_SIZE" default:"10"`
	} `envconfig:""`

	AI struct {
		OpenAIKey        string        `envconfig:"OPENAI_API_KEY"`
		OpenAIModel      string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		OpenAIBaseURL    string        `envconfig:"OPENAI_BASE_URL"`
		GeminiKey        string        `envconfig:"GEMINI_API_KEY"`
		GeminiModel      string        `envconfig:"GEMINI_MODEL" default:"text-bison-001"`
		Timeout          time.Duration `envconfig:"AI_TIMEOUT" default:"15s"`
		SummaryMaxLength int           `envconfig:"SUMMARY_MAX_LENGTH" default:"200"`
	} `envconfig:""`

	SMTP struct {
		Host     string        `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
		Port     int           `envconfig:"SMTP_PORT" default:"587"`
		User     string        `envconfig:"SMTP_USER"`
		Password string        `envconfig:"SMTP_PASSWORD"`
		From     string        `envconfig:"EMAIL_FROM"`
		Timeout  time.Duration `envconfig:"SMTP_TIMEOUT" default:"30s"`
		BCCSelf  bool          `envconfig:"SMTP_BCC_SELF" default:"false"`
	} `envconfig:""`

	Scheduler struct {
		Enabled      bool          `envconfig:"SCHEDULER_ENABLED" default:"false"`
		Hour         int           `envconfig:"SCHEDULE_CRON_HOUR" default:"9"`
		Minute       int           `envconfig:"SCHEDULE_CRON_MINUTE" default:"0"`
		Days         int           `envconfig:"SCHEDULE_DAYS" default:"1"`
		Timezone     string        `envconfig:"SCHEDULE_TZ" default:"UTC"`
		Test         bool          `envconfig:"SCHEDULER_TEST" default:"false"`
		TestInterval time.Duration `envconfig:"SCHEDULER_TEST_INTERVAL" default:"5m"`
		RunTimeout   time.Duration `envconfig:"SCHEDULER_RUN_TIMEOUT" default:"30m"`
	} `envconfig:""`

	Dispatch struct {
		LockTTL time.Duration `envconfig:"DISPATCH_LOCK_TTL" default:"10m"`
	} `envconfig:""`

	Google struct {
		ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
		ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
		RedirectURI  string `envconfig:"GOOGLE_REDIRECT_URI"`
		FrontendURL  string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Parse читает конфиг из окружения и возвращает ошибку вместо завершения процесса.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
