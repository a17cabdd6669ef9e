package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"career-backend/internal/generations"
	"career-backend/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		AWSRegion:       "us-east-1",
		AIRatePerMinute: 30,
		LLM: config.LLMConfig{
			Provider:           "bedrock",
			ModelID:            config.DefaultModelID,
			Timeout:            time.Minute,
			MaxTokens:          config.DefaultMaxTokens,
			InitialTemperature: config.DefaultInitialTemperature,
			RetryTemperature:   config.DefaultRetryTemperature,
		},
	}
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close(context.Background())

	if app.DB != nil || app.Recorder != nil {
		t.Fatalf("expected in-memory app without telemetry")
	}
	if _, ok := app.GenerationsRepo.(*generations.MemoryRepo); !ok {
		t.Fatalf("expected memory generations repo, got %T", app.GenerationsRepo)
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ai/operations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected DATABASE_URL error")
	}
}

func TestBuildSink(t *testing.T) {
	app := &App{GenerationsRepo: generations.NewMemoryRepo()}

	sink, err := app.buildSink(context.Background())
	if err != nil || sink != nil {
		t.Fatalf("disabled telemetry should give no sink, got %v %v", sink, err)
	}

	app.Config.Telemetry = config.TelemetryConfig{Enabled: true, Sink: "postgres"}
	sink, err = app.buildSink(context.Background())
	if _, ok := sink.(generations.RepoSink); !ok || err != nil {
		t.Fatalf("expected repo sink, got %T %v", sink, err)
	}

	app.Config.Telemetry = config.TelemetryConfig{Enabled: true, Sink: "http"}
	if _, err := app.buildSink(context.Background()); err == nil {
		t.Fatalf("http sink without endpoint should fail")
	}

	app.Config.Telemetry = config.TelemetryConfig{Enabled: true, Sink: "http", Endpoint: "http://collector.local/events"}
	sink, err = app.buildSink(context.Background())
	if _, ok := sink.(*generations.HTTPSink); !ok || err != nil {
		t.Fatalf("expected http sink, got %T %v", sink, err)
	}
}

func TestBuildTransportRejectsMissingKey(t *testing.T) {
	cfg := devConfig(t)
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKey = ""
	if _, err := buildTransport(context.Background(), cfg); err == nil {
		t.Fatalf("expected missing api key error")
	}
}
