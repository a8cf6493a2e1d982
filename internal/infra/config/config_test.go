package config

import (
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "news-key")
	t.Setenv("SCHEDULE_CRON_HOUR", "7")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if cfg.News.APIKey != "news-key" {
		t.Fatalf("ожидали ключ из окружения, получили %q", cfg.News.APIKey)
	}
	if cfg.Scheduler.Hour != 7 || cfg.Scheduler.Minute != 0 {
		t.Fatalf("неожиданное время рассылки: %02d:%02d", cfg.Scheduler.Hour, cfg.Scheduler.Minute)
	}
	if cfg.AI.Timeout != 15*time.Second {
		t.Fatalf("ожидали таймаут 15s, получили %s", cfg.AI.Timeout)
	}
	if cfg.AI.SummaryMaxLength != 200 {
		t.Fatalf("ожидали длину 200, получили %d", cfg.AI.SummaryMaxLength)
	}
	if cfg.SMTP.Timeout <= 0 {
		t.Fatal("ожидали явный таймаут SMTP")
	}
}
