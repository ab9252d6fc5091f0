package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/heatmap_tiles/internal/model"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP       HTTP       `envPrefix:"HTTP_"`
		Logger     Logger     `envPrefix:"LOGGER_"`
		Telemetry  Telemetry  `envPrefix:"TELEMETRY_"`
		Upstream   Upstream   `envPrefix:"UPSTREAM_"`
		Compositor Compositor `envPrefix:"COMPOSITOR_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT" envDefault:"3000" validate:"required,numeric"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`

		// Format selects the zap encoder: console for humans, json for collectors.
		Format string `env:"FORMAT" envDefault:"console" validate:"oneof=console json"`
	}

	Telemetry struct {
		Enabled        bool    `env:"ENABLED" envDefault:"false"`
		Exporter       string  `env:"EXPORTER" envDefault:"otlp" validate:"oneof=otlp stdout"`
		ServiceName    string  `env:"SERVICE_NAME" envDefault:"heatmap-tiles"`
		ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string  `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
		SampleRatio    float64 `env:"SAMPLE_RATIO" envDefault:"1" validate:"min=0,max=1"`
	}

	Upstream struct {
		// Timeout bounds every single upstream fetch.
		Timeout   time.Duration `env:"TIMEOUT" envDefault:"10s" validate:"gt=0"`
		UserAgent string        `env:"USER_AGENT" envDefault:"HeatmapTiles/1.0 (https://github.com/jaennil/heatmap_tiles)"`
		Base      Base          `envPrefix:"BASE_"`
		Overlay   Overlay       `envPrefix:"OVERLAY_"`
	}

	Base struct {
		URLTemplate string `env:"URL_TEMPLATE" envDefault:"https://maps.six.nsw.gov.au/arcgis/rest/services/public/NSW_Imagery/MapServer/tile/{z}/{y}/{x}" validate:"required,url"`
	}

	Overlay struct {
		URLTemplate string                    `env:"URL_TEMPLATE" envDefault:"https://heatmap-external-{region}.strava.com/tiles-auth/{activity}/{color}/{z}/{x}/{y}.png" validate:"required"`
		Activity    string                    `env:"ACTIVITY" envDefault:"all" validate:"required,alphanum"`
		Color       string                    `env:"COLOR" envDefault:"hot" validate:"required,alphanum"`
		Credentials model.UpstreamCredentials `validate:"-"`
	}

	Compositor struct {
		Resampler      string `env:"RESAMPLER" envDefault:"catmullrom" validate:"oneof=catmullrom bilinear approxbilinear nearest"`
		PNGCompression string `env:"PNG_COMPRESSION" envDefault:"default" validate:"oneof=default speed best none"`

		// MaxDimension rejects upstream images wider or taller than this before decoding.
		MaxDimension int `env:"MAX_DIMENSION" envDefault:"4096" validate:"min=1,max=16384"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
