package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultModel = "gpt-4o-mini"

type Config struct {
	Port          int
	APIToken      string
	LogLevel      string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	SaveResult    bool
	ResultDir     string
	DatabaseURL   string
	NatsURL       string
	NatsToken     string
	SlackBotToken string
	SlackChannel  string
}

// Load reads a .env file from the working directory when present, then builds
// the config from the environment. Variables already set in the environment
// win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          envInt("MINUTES_PORT", 8760),
		APIToken:      envStr("MINUTES_API_TOKEN", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIModel:   envStr("OPENAI_MODEL", DefaultModel),
		OpenAIBaseURL: envStr("OPENAI_BASE_URL", "https://api.openai.com"),
		SaveResult:    os.Getenv("SAVE_RESULT") == "true",
		ResultDir:     envStr("RESULT_DIR", "."),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		NatsURL:       envStr("NATS_URL", ""),
		NatsToken:     envStr("NATS_TOKEN", ""),
		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_CHANNEL", ""),
	}
}

// ReportKeys are the variables shown by EnvReport, in display order.
var ReportKeys = []string{
	"OPENAI_API_KEY",
	"OPENAI_MODEL",
	"SAVE_RESULT",
	"OPENAI_BASE_URL",
	"DATABASE_URL",
	"NATS_URL",
	"SLACK_BOT_TOKEN",
	"SLACK_CHANNEL",
	"MINUTES_API_TOKEN",
	"LOG_LEVEL",
}

const unset = "未設定"

// EnvReport renders KEY=value lines for ReportKeys as they appear in the raw
// environment, with secrets masked.
func EnvReport(lookup func(string) string) []string {
	lines := make([]string, 0, len(ReportKeys))
	for _, key := range ReportKeys {
		v := lookup(key)
		switch {
		case v == "":
			v = unset
		case isSecret(key):
			v = Mask(v)
		}
		lines = append(lines, key+"="+v)
	}
	return lines
}

func isSecret(key string) bool {
	return strings.Contains(key, "API_KEY") ||
		strings.Contains(key, "SECRET") ||
		strings.Contains(key, "TOKEN") ||
		key == "DATABASE_URL"
}

// Mask keeps the first 8 and last 4 characters of values longer than 8.
func Mask(v string) string {
	r := []rune(v)
	if len(r) <= 8 {
		return "***"
	}
	return string(r[:8]) + "..." + string(r[len(r)-4:])
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
