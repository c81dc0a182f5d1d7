package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/nzcvm/nzcvm-webapp/internal/engine"
	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"5000"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8000"`

	ModelVersionsDir string `envconfig:"MODEL_VERSIONS_DIR" default:"./model_versions"`
	GeoJSONDir       string `envconfig:"GEOJSON_DIR" default:"./generated_basin_geojsons"`

	GeneratorPath         string        `envconfig:"GENERATOR_PATH" default:"nzcvm"`
	GeneratorOutputFormat string        `envconfig:"GENERATOR_OUTPUT_FORMAT" default:"HDF5"`
	GeneratorTimeout      time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"10m"`
	MaxRequestBytes       int64         `envconfig:"MAX_REQUEST_BYTES" default:"65536"`

	// Policy values tuned on one deployment; not derived from first principles.
	MinExtentKm             float64 `envconfig:"MIN_EXTENT_KM" default:"0.11132"`
	MaxRuntimeSeconds       float64 `envconfig:"MAX_RUNTIME_SECONDS" default:"600"`
	RuntimeInterceptSeconds float64 `envconfig:"RUNTIME_INTERCEPT_SECONDS" default:"33"`
	RuntimeSecondsPerPoint  float64 `envconfig:"RUNTIME_SECONDS_PER_POINT" default:"0.000026"`

	RunlogPath  string `envconfig:"RUNLOG_PATH" default:"./data/runs.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	JWTSecret   string `envconfig:"JWT_SECRET"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	TracingEnabled  bool   `envconfig:"TRACING_ENABLED" default:"false"`
	TracingExporter string `envconfig:"TRACING_EXPORTER" default:"stdout"`
	OTLPEndpoint    string `envconfig:"OTLP_ENDPOINT" default:"localhost:4317"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Limits returns the drag policy thresholds.
func (c *Config) Limits() engine.Limits {
	return engine.Limits{MinExtentKm: c.MinExtentKm}
}

// RuntimeModel returns the generation time estimator.
func (c *Config) RuntimeModel() geodesy.RuntimeModel {
	return geodesy.RuntimeModel{
		InterceptSeconds: c.RuntimeInterceptSeconds,
		SecondsPerPoint:  c.RuntimeSecondsPerPoint,
	}
}
