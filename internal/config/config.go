package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tractorstats/tractor-stats/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Record source backends.
const (
	SourceSheet    = "sheet"
	SourcePostgres = "postgres"
	SourceMemory   = "memory"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                       string
	ServiceName                  string
	ServiceVersion               string
	HTTPAddr                     string
	LogLevel                     logging.Level
	RecordSource                 string
	SheetCSVURL                  string
	SheetTimeout                 time.Duration
	SheetMaxRetries              int
	SheetCircuitEnabled          bool
	SheetCircuitFailureCount     int
	SheetCircuitOpenTimeout      time.Duration
	SheetCircuitHalfOpenMaxReq   int
	DBURL                        string
	DBDisablePreparedBinary      bool
	CacheEnabled                 bool
	CacheTTL                     time.Duration
	MinSampleSize                int
	IndicatorThreshold           float64
	IndicatorCap                 float64
	CORSAllowedOrigins           []string
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
	InternalJobToken             string
	SwaggerEnabled               bool
	WebhookEnabled               bool
	WebhookURL                   string
	WebhookToken                 string
	WebhookTimeout               time.Duration
	WebhookCircuitEnabled        bool
	WebhookCircuitFailureCount   int
	WebhookCircuitOpenTimeout    time.Duration
	WebhookCircuitHalfOpenMaxReq int
	PprofEnabled                 bool
	PprofAddr                    string
	PyroscopeEnabled             bool
	PyroscopeServerAddress       string
	PyroscopeAppName             string
	PyroscopeAuthToken           string
	PyroscopeBasicAuthUser       string
	PyroscopeBasicAuthPassword   string
	PyroscopeUploadRate          time.Duration
	UptraceEnabled               bool
	UptraceDSN                   string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	recordSource, err := parseRecordSource(getEnv("RECORD_SOURCE", SourceSheet))
	if err != nil {
		return Config{}, err
	}

	sheetCSVURL := strings.TrimSpace(getEnv("SHEET_CSV_URL", ""))
	if recordSource == SourceSheet && sheetCSVURL == "" {
		return Config{}, fmt.Errorf("SHEET_CSV_URL is required when RECORD_SOURCE=sheet")
	}
	sheetTimeout, err := time.ParseDuration(getEnv("SHEET_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEET_TIMEOUT: %w", err)
	}
	if sheetTimeout <= 0 {
		return Config{}, fmt.Errorf("SHEET_TIMEOUT must be > 0")
	}
	sheetMaxRetries, err := getEnvAsInt("SHEET_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEET_MAX_RETRIES: %w", err)
	}
	if sheetMaxRetries < 0 {
		return Config{}, fmt.Errorf("SHEET_MAX_RETRIES must be >= 0")
	}
	sheetCircuitEnabled, err := strconv.ParseBool(getEnv("SHEET_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEET_CIRCUIT_ENABLED: %w", err)
	}
	sheetCircuitFailureCount, err := getEnvAsInt("SHEET_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEET_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if sheetCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SHEET_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	sheetCircuitOpenTimeout, err := time.ParseDuration(getEnv("SHEET_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEET_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if sheetCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SHEET_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	sheetCircuitHalfOpenMaxReq, err := getEnvAsInt("SHEET_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHEET_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if sheetCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SHEET_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if recordSource == SourcePostgres && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when RECORD_SOURCE=postgres")
	}
	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	minSampleSize, err := getEnvAsInt("MIN_SAMPLE_SIZE", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse MIN_SAMPLE_SIZE: %w", err)
	}
	if minSampleSize < 1 {
		return Config{}, fmt.Errorf("MIN_SAMPLE_SIZE must be >= 1")
	}
	indicatorThreshold, err := getEnvAsFloat("INDICATOR_THRESHOLD", 0.5)
	if err != nil {
		return Config{}, fmt.Errorf("parse INDICATOR_THRESHOLD: %w", err)
	}
	if indicatorThreshold <= 0 {
		return Config{}, fmt.Errorf("INDICATOR_THRESHOLD must be > 0")
	}
	indicatorCap, err := getEnvAsFloat("INDICATOR_CAP", 2.0)
	if err != nil {
		return Config{}, fmt.Errorf("parse INDICATOR_CAP: %w", err)
	}
	if indicatorCap <= indicatorThreshold {
		return Config{}, fmt.Errorf("INDICATOR_CAP must be > INDICATOR_THRESHOLD")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	webhookEnabled, err := strconv.ParseBool(getEnv("REFRESH_WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WEBHOOK_ENABLED: %w", err)
	}
	webhookURL := strings.TrimSpace(getEnv("REFRESH_WEBHOOK_URL", ""))
	if webhookEnabled && webhookURL == "" {
		return Config{}, fmt.Errorf("REFRESH_WEBHOOK_URL is required when REFRESH_WEBHOOK_ENABLED=true")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("REFRESH_WEBHOOK_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("REFRESH_WEBHOOK_TIMEOUT must be > 0")
	}
	webhookCircuitEnabled, err := strconv.ParseBool(getEnv("REFRESH_WEBHOOK_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WEBHOOK_CIRCUIT_ENABLED: %w", err)
	}
	webhookCircuitFailureCount, err := getEnvAsInt("REFRESH_WEBHOOK_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WEBHOOK_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if webhookCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("REFRESH_WEBHOOK_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	webhookCircuitOpenTimeout, err := time.ParseDuration(getEnv("REFRESH_WEBHOOK_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WEBHOOK_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if webhookCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("REFRESH_WEBHOOK_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	webhookCircuitHalfOpenMaxReq, err := getEnvAsInt("REFRESH_WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if webhookCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("REFRESH_WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg := Config{
		AppEnv:                       appEnv,
		ServiceName:                  getEnv("APP_SERVICE_NAME", "tractor-stats-api"),
		ServiceVersion:               getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                     getEnv("APP_HTTP_ADDR", ":7860"),
		LogLevel:                     parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		RecordSource:                 recordSource,
		SheetCSVURL:                  sheetCSVURL,
		SheetTimeout:                 sheetTimeout,
		SheetMaxRetries:              sheetMaxRetries,
		SheetCircuitEnabled:          sheetCircuitEnabled,
		SheetCircuitFailureCount:     sheetCircuitFailureCount,
		SheetCircuitOpenTimeout:      sheetCircuitOpenTimeout,
		SheetCircuitHalfOpenMaxReq:   sheetCircuitHalfOpenMaxReq,
		DBURL:                        dbURL,
		DBDisablePreparedBinary:      dbDisablePreparedBinary,
		CacheEnabled:                 cacheEnabled,
		CacheTTL:                     cacheTTL,
		MinSampleSize:                minSampleSize,
		IndicatorThreshold:           indicatorThreshold,
		IndicatorCap:                 indicatorCap,
		CORSAllowedOrigins:           splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                  readTimeout,
		WriteTimeout:                 writeTimeout,
		InternalJobToken:             strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		SwaggerEnabled:               swaggerEnabled,
		WebhookEnabled:               webhookEnabled,
		WebhookURL:                   webhookURL,
		WebhookToken:                 strings.TrimSpace(getEnv("REFRESH_WEBHOOK_TOKEN", "")),
		WebhookTimeout:               webhookTimeout,
		WebhookCircuitEnabled:        webhookCircuitEnabled,
		WebhookCircuitFailureCount:   webhookCircuitFailureCount,
		WebhookCircuitOpenTimeout:    webhookCircuitOpenTimeout,
		WebhookCircuitHalfOpenMaxReq: webhookCircuitHalfOpenMaxReq,
		PprofEnabled:                 pprofEnabled,
		PprofAddr:                    pprofAddr,
		PyroscopeEnabled:             pyroscopeEnabled,
		PyroscopeServerAddress:       pyroscopeServerAddress,
		PyroscopeAuthToken:           strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:       strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:   strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:          pyroscopeUploadRate,
		UptraceEnabled:               uptraceEnabled,
		UptraceDSN:                   uptraceDSN,
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseRecordSource(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case SourceSheet, SourcePostgres, SourceMemory:
		return value, nil
	default:
		return "", fmt.Errorf("invalid RECORD_SOURCE %q: valid values are %s, %s, %s", v, SourceSheet, SourcePostgres, SourceMemory)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
