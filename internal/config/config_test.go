package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_RecordSourceValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("RECORD_SOURCE", "redis")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid RECORD_SOURCE")
		}
	})

	t.Run("sheet requires csv url", func(t *testing.T) {
		t.Setenv("RECORD_SOURCE", SourceSheet)
		t.Setenv("SHEET_CSV_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when RECORD_SOURCE=sheet without SHEET_CSV_URL")
		}
	})

	t.Run("postgres requires db url", func(t *testing.T) {
		t.Setenv("RECORD_SOURCE", SourcePostgres)
		t.Setenv("DB_URL", "")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when RECORD_SOURCE=postgres without DB_URL")
		}
	})

	t.Run("memory needs nothing", func(t *testing.T) {
		t.Setenv("RECORD_SOURCE", SourceMemory)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.RecordSource != SourceMemory {
			t.Fatalf("unexpected record source: %q", cfg.RecordSource)
		}
	})
}

func TestLoad_SheetConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceSheet)
	t.Setenv("SHEET_CSV_URL", "https://docs.example.com/export?format=csv")
	t.Setenv("SHEET_TIMEOUT", "12s")
	t.Setenv("SHEET_MAX_RETRIES", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SheetCSVURL != "https://docs.example.com/export?format=csv" {
		t.Fatalf("unexpected SheetCSVURL: %q", cfg.SheetCSVURL)
	}
	if cfg.SheetTimeout != 12*time.Second {
		t.Fatalf("unexpected SheetTimeout: %s", cfg.SheetTimeout)
	}
	if cfg.SheetMaxRetries != 3 {
		t.Fatalf("unexpected SheetMaxRetries: %d", cfg.SheetMaxRetries)
	}
	if !cfg.SheetCircuitEnabled {
		t.Fatalf("expected sheet circuit enabled by default")
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("prod disables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("RECORD_SOURCE", SourceMemory)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=false in prod by default")
		}
	})

	t.Run("dev enables swagger by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("RECORD_SOURCE", SourceMemory)
		t.Setenv("SWAGGER_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.SwaggerEnabled {
			t.Fatalf("expected SwaggerEnabled=true in dev by default")
		}
	})
}

func TestLoad_CacheConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceMemory)

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("CACHE_ENABLED", "")
		t.Setenv("CACHE_TTL", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if !cfg.CacheEnabled {
			t.Fatalf("expected cache enabled by default")
		}
		if cfg.CacheTTL != 5*time.Minute {
			t.Fatalf("unexpected default cache ttl: %s", cfg.CacheTTL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "bad")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid CACHE_TTL")
		}
	})
}

func TestLoad_AggregationConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceMemory)

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.MinSampleSize != 5 {
			t.Fatalf("unexpected default min sample size: %d", cfg.MinSampleSize)
		}
		if cfg.IndicatorThreshold != 0.5 {
			t.Fatalf("unexpected default indicator threshold: %v", cfg.IndicatorThreshold)
		}
		if cfg.IndicatorCap != 2.0 {
			t.Fatalf("unexpected default indicator cap: %v", cfg.IndicatorCap)
		}
	})

	t.Run("cap must exceed threshold", func(t *testing.T) {
		t.Setenv("INDICATOR_THRESHOLD", "2.0")
		t.Setenv("INDICATOR_CAP", "1.0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error when INDICATOR_CAP <= INDICATOR_THRESHOLD")
		}
	})

	t.Run("min sample size must be positive", func(t *testing.T) {
		t.Setenv("MIN_SAMPLE_SIZE", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for MIN_SAMPLE_SIZE=0")
		}
	})
}

func TestLoad_WebhookRequiresURLWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceMemory)
	t.Setenv("REFRESH_WEBHOOK_ENABLED", "true")
	t.Setenv("REFRESH_WEBHOOK_URL", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when REFRESH_WEBHOOK_ENABLED=true without REFRESH_WEBHOOK_URL")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceMemory)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceMemory)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceMemory)
	t.Setenv("APP_SERVICE_NAME", "tractor-stats-api-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "tractor-stats-api-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_CORSOriginsDefaultAndParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RECORD_SOURCE", SourceMemory)

	t.Run("default wildcard", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
			t.Fatalf("unexpected default CORS origins: %+v", cfg.CORSAllowedOrigins)
		}
	})

	t.Run("comma separated parsing", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://stats.example.com, http://localhost:5173 ")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if len(cfg.CORSAllowedOrigins) != 2 {
			t.Fatalf("unexpected CORS origins length: %d", len(cfg.CORSAllowedOrigins))
		}
		if cfg.CORSAllowedOrigins[0] != "https://stats.example.com" {
			t.Fatalf("unexpected first CORS origin: %s", cfg.CORSAllowedOrigins[0])
		}
	})
}
