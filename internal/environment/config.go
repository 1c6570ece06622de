package environment

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	QuestionPath  string
	TestsPath     string
	Language      string
	LanguagesPath string
	TimeLimit     time.Duration

	LogLevel slog.Level

	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int

	NatsURL     string
	NatsSubject string

	AWSRegion          string
	SQSRequestQueueURL string
	SQSResultQueueURL  string
}

// LoadDotEnv loads .env into the process environment if the file exists.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// ReadConfig reads the configuration from environment variables, falling
// back to defaults for anything unset.
func ReadConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr:         getenv("LISTEN_ADDR", ":5000"),
		QuestionPath:       getenv("QUESTION_PATH", "data/question.json"),
		TestsPath:          getenv("TESTS_PATH", "data/tests.toml"),
		Language:           getenv("LANGUAGE", "python3"),
		LanguagesPath:      os.Getenv("LANGUAGES_PATH"),
		NatsURL:            os.Getenv("NATS_URL"),
		NatsSubject:        getenv("NATS_SUBJECT", "grader.events"),
		AWSRegion:          getenv("AWS_REGION", "eu-central-1"),
		SQSRequestQueueURL: os.Getenv("SQS_REQUEST_QUEUE_URL"),
		SQSResultQueueURL:  os.Getenv("SQS_RESULT_QUEUE_URL"),
	}

	var err error
	if cfg.TimeLimit, err = parseDuration("EXEC_TIME_LIMIT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = parseFloat("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = parseInt("RATE_LIMIT_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrent, err = parseInt("MAX_CONCURRENT", 4); err != nil {
		return nil, err
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// parseDuration accepts Go durations ("1500ms", "10s") and bare seconds ("10").
func parseDuration(key string, def string) (time.Duration, error) {
	v := getenv(key, def)
	var d time.Duration
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else if d, err = time.ParseDuration(v); err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}

func parseFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive number", key, v)
	}
	return f, nil
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive integer", key, v)
	}
	return n, nil
}
