package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dotmap/dotmap/internal/geometry"
	"github.com/dotmap/dotmap/pkg/core"
)

// FileName is the config file looked up in the config directory.
const FileName = "dotmap.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. DOTMAP_HOVER_RADIUS.
const EnvPrefix = "DOTMAP"

// DotsConfig sizes the base dots.
type DotsConfig struct {
	Radius   float64 `mapstructure:"radius"`
	Height   float64 `mapstructure:"height"`
	Spacing  float64 `mapstructure:"spacing"`
	CellSize float64 `mapstructure:"cellSize"`
}

// LayoutConfig selects marker presets.
type LayoutConfig struct {
	Active  string                              `mapstructure:"active"`
	ByType  map[string]string                   `mapstructure:"byType"`
	Presets map[string]geometry.PresetOverrides `mapstructure:"presets"`
}

// HotspotsConfig sizes markers relative to dots.
type HotspotsConfig struct {
	RadiusMultiplier float64      `mapstructure:"radiusMultiplier"`
	HeightMultiplier float64      `mapstructure:"heightMultiplier"`
	Layout           LayoutConfig `mapstructure:"layout"`
}

// IdleConfig is the vertical bob of markers.
type IdleConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Amplitude float64 `mapstructure:"amplitude"`
	Speed     float64 `mapstructure:"speed"`
	PhaseStep float64 `mapstructure:"phaseStep"`
}

// GlowConfig is the scale pulse of markers.
type GlowConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Amplitude float64 `mapstructure:"amplitude"`
	Speed     float64 `mapstructure:"speed"`
}

// EffectsConfig groups the marker animations.
type EffectsConfig struct {
	Idle IdleConfig `mapstructure:"idle"`
	Glow GlowConfig `mapstructure:"glow"`
}

// ConnectionLineConfig is the base arc style and which arc sets are drawn.
type ConnectionLineConfig struct {
	Enabled        bool
	DrawSequential bool
	Style          core.ArcStyle
}

// HoverConfig drives the lift field.
type HoverConfig struct {
	Radius    float64 `mapstructure:"radius"`
	MaxLift   float64 `mapstructure:"maxLift"`
	Easing    float64 `mapstructure:"easing"`
	Threshold float64 `mapstructure:"threshold"`
}

// InteractionConfig holds hover hysteresis and decay.
type InteractionConfig struct {
	HoverCooldownFrames int     `mapstructure:"hoverCooldownFrames"`
	HoverFalloff        float64 `mapstructure:"hoverFalloff"`
}

// HotspotSourceConfig is one typed hotspot file.
type HotspotSourceConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

// SourcesConfig lists the input files.
type SourcesConfig struct {
	Points   string                `mapstructure:"points"`
	Hotspots []HotspotSourceConfig `mapstructure:"hotspots"`
}

// MapConfig controls the lat/lon projection onto the dot grid.
// Zero Width or Height fits the grid to the dot field bounds.
type MapConfig struct {
	Projection string  `mapstructure:"projection"`
	Width      float64 `mapstructure:"width"`
	Height     float64 `mapstructure:"height"`
}

// FrameConfig holds tick loop settings.
type FrameConfig struct {
	FPS               int
	SnapshotEvery     int
	MeshCacheVertices int64
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
	// MaxFrames caps the retained snapshots; zero keeps all.
	MaxFrames int `json:"maxFrames" mapstructure:"maxFrames"`
}

// SQLiteConfig holds sqlite storage backend settings
type SQLiteConfig struct {
	DumpInterval time.Duration
	DumpPath     string
}

// WebSocketConfig holds streaming backend settings
type WebSocketConfig struct {
	URL    string
	Secret string
}

// StorageConfig selects and configures the snapshot backend.
type StorageConfig struct {
	Type          string
	OutboxSize    int
	FlushInterval time.Duration
	Memory        MemoryConfig
	SQLite        SQLiteConfig
	WebSocket     WebSocketConfig
	// FallbackPath is where the postgres backend dumps its local copy
	// when the server is unreachable.
	FallbackPath string
}

// ArchiveConfig points at a web archive that receives exported sessions.
type ArchiveConfig struct {
	Enabled bool
	URL     string
	APIKey  string
	Timeout time.Duration
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// InfluxConfig holds InfluxDB settings
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string
	Token    string
	Org      string
	Bucket   string
}

// LoggingConfig holds log sink settings
type LoggingConfig struct {
	Level          string
	Dir            string
	MaxSizeMB      int
	MaxBackups     int
	MaxAgeDays     int
	Compress       bool
	GraylogEnabled bool
	GraylogAddress string
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./dotmaplogs")
	viper.SetDefault("logging.maxSizeMB", 20)
	viper.SetDefault("logging.maxBackups", 5)
	viper.SetDefault("logging.maxAgeDays", 14)
	viper.SetDefault("logging.compress", true)

	viper.SetDefault("dots.radius", 0.35)
	viper.SetDefault("dots.height", 0.6)
	viper.SetDefault("dots.spacing", 1.0)
	viper.SetDefault("dots.cellSize", 0.0)

	viper.SetDefault("hotspots.radiusMultiplier", 1.6)
	viper.SetDefault("hotspots.heightMultiplier", 2.4)
	viper.SetDefault("hotspots.layout.active", geometry.ClassicPreset)

	viper.SetDefault("hotspots.effects.idle.enabled", true)
	viper.SetDefault("hotspots.effects.idle.amplitude", 0.12)
	viper.SetDefault("hotspots.effects.idle.speed", 1.6)
	viper.SetDefault("hotspots.effects.idle.phaseStep", 0.7)
	viper.SetDefault("hotspots.effects.glow.enabled", true)
	viper.SetDefault("hotspots.effects.glow.amplitude", 0.08)
	viper.SetDefault("hotspots.effects.glow.speed", 2.4)

	viper.SetDefault("hotspots.connectionLine.enabled", true)
	viper.SetDefault("hotspots.connectionLine.drawSequential", true)
	viper.SetDefault("hotspots.connectionLine.thickness", 0.05)
	viper.SetDefault("hotspots.connectionLine.segments", 24)
	viper.SetDefault("hotspots.connectionLine.arcHeight", 1.5)
	viper.SetDefault("hotspots.connectionLine.color", "#7fd4ff")
	viper.SetDefault("hotspots.connectionLine.opacity", 0.85)
	viper.SetDefault("hotspots.connectionLine.heightOffset", 0.1)
	viper.SetDefault("hotspots.connectionLine.radialSegments", 8)

	viper.SetDefault("hover.radius", 2.5)
	viper.SetDefault("hover.maxLift", 1.2)
	viper.SetDefault("hover.easing", 0.18)
	viper.SetDefault("hover.threshold", 0.001)

	viper.SetDefault("interaction.hoverCooldownFrames", 6)
	viper.SetDefault("interaction.hoverFalloff", 0.92)

	viper.SetDefault("sources.points", "./data/points.json")

	viper.SetDefault("map.projection", "equirectangular")
	viper.SetDefault("map.width", 0.0)
	viper.SetDefault("map.height", 0.0)

	viper.SetDefault("frame.fps", 60)
	viper.SetDefault("frame.snapshotEvery", 30)
	viper.SetDefault("frame.meshCacheVertices", 1<<20)

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "dotmap")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "dotmap-metrics")
	viper.SetDefault("influx.bucket", "dotmap-frames")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.outboxSize", 256)
	viper.SetDefault("storage.flushInterval", "2s")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.memory.maxFrames", 0)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./recordings/dotmap.db")
	viper.SetDefault("storage.postgres.fallbackPath", "./recordings/dotmap_fallback.db")
	viper.SetDefault("storage.websocket.url", "ws://localhost:5000/api/stream")
	viper.SetDefault("storage.websocket.secret", "")

	viper.SetDefault("archive.enabled", false)
	viper.SetDefault("archive.url", "http://localhost:5000")
	viper.SetDefault("archive.apiKey", "")
	viper.SetDefault("archive.timeout", "30s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "dotmap")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. An optional .env
// file in the same directory is loaded into the environment first;
// DOTMAP_ prefixed variables override file values.
func Load(configDir string) error {
	setDefaults()

	envFile := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading env file: %w", err)
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDotsConfig returns dot dimensions.
func GetDotsConfig() DotsConfig {
	return DotsConfig{
		Radius:   viper.GetFloat64("dots.radius"),
		Height:   viper.GetFloat64("dots.height"),
		Spacing:  viper.GetFloat64("dots.spacing"),
		CellSize: viper.GetFloat64("dots.cellSize"),
	}
}

// GetHotspotsConfig returns marker sizing and layout. Presets are decoded
// from hotspots.layout.presets; unknown fields are ignored.
func GetHotspotsConfig() (HotspotsConfig, error) {
	cfg := HotspotsConfig{
		RadiusMultiplier: viper.GetFloat64("hotspots.radiusMultiplier"),
		HeightMultiplier: viper.GetFloat64("hotspots.heightMultiplier"),
		Layout: LayoutConfig{
			Active: viper.GetString("hotspots.layout.active"),
			ByType: viper.GetStringMapString("hotspots.layout.byType"),
		},
	}
	if err := viper.UnmarshalKey("hotspots.layout.presets", &cfg.Layout.Presets); err != nil {
		return cfg, fmt.Errorf("failed to decode hotspot presets: %w", err)
	}
	return cfg, nil
}

// GetEffectsConfig returns the idle and glow animation settings.
func GetEffectsConfig() EffectsConfig {
	return EffectsConfig{
		Idle: IdleConfig{
			Enabled:   viper.GetBool("hotspots.effects.idle.enabled"),
			Amplitude: viper.GetFloat64("hotspots.effects.idle.amplitude"),
			Speed:     viper.GetFloat64("hotspots.effects.idle.speed"),
			PhaseStep: viper.GetFloat64("hotspots.effects.idle.phaseStep"),
		},
		Glow: GlowConfig{
			Enabled:   viper.GetBool("hotspots.effects.glow.enabled"),
			Amplitude: viper.GetFloat64("hotspots.effects.glow.amplitude"),
			Speed:     viper.GetFloat64("hotspots.effects.glow.speed"),
		},
	}
}

// GetConnectionLineConfig returns the base arc style.
func GetConnectionLineConfig() ConnectionLineConfig {
	return ConnectionLineConfig{
		Enabled:        viper.GetBool("hotspots.connectionLine.enabled"),
		DrawSequential: viper.GetBool("hotspots.connectionLine.drawSequential"),
		Style: core.ArcStyle{
			Color:          viper.GetString("hotspots.connectionLine.color"),
			Opacity:        viper.GetFloat64("hotspots.connectionLine.opacity"),
			ArcHeight:      viper.GetFloat64("hotspots.connectionLine.arcHeight"),
			Segments:       viper.GetInt("hotspots.connectionLine.segments"),
			Thickness:      viper.GetFloat64("hotspots.connectionLine.thickness"),
			HeightOffset:   viper.GetFloat64("hotspots.connectionLine.heightOffset"),
			RadialSegments: viper.GetInt("hotspots.connectionLine.radialSegments"),
		},
	}
}

// GetConnectionPairs decodes hotspots.connectionPairs.
func GetConnectionPairs() ([]core.ConnectionPair, error) {
	var pairs []core.ConnectionPair
	if err := viper.UnmarshalKey("hotspots.connectionPairs", &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode connection pairs: %w", err)
	}
	return pairs, nil
}

// GetHoverConfig returns the lift field settings.
func GetHoverConfig() HoverConfig {
	return HoverConfig{
		Radius:    viper.GetFloat64("hover.radius"),
		MaxLift:   viper.GetFloat64("hover.maxLift"),
		Easing:    viper.GetFloat64("hover.easing"),
		Threshold: viper.GetFloat64("hover.threshold"),
	}
}

// GetInteractionConfig returns hover hysteresis settings.
func GetInteractionConfig() InteractionConfig {
	return InteractionConfig{
		HoverCooldownFrames: viper.GetInt("interaction.hoverCooldownFrames"),
		HoverFalloff:        viper.GetFloat64("interaction.hoverFalloff"),
	}
}

// GetSourcesConfig returns the input file list.
func GetSourcesConfig() (SourcesConfig, error) {
	cfg := SourcesConfig{Points: viper.GetString("sources.points")}
	if err := viper.UnmarshalKey("sources.hotspots", &cfg.Hotspots); err != nil {
		return cfg, fmt.Errorf("failed to decode hotspot sources: %w", err)
	}
	return cfg, nil
}

// GetMapConfig returns projection settings.
func GetMapConfig() MapConfig {
	return MapConfig{
		Projection: viper.GetString("map.projection"),
		Width:      viper.GetFloat64("map.width"),
		Height:     viper.GetFloat64("map.height"),
	}
}

// GetFrameConfig returns tick loop settings.
func GetFrameConfig() FrameConfig {
	return FrameConfig{
		FPS:               viper.GetInt("frame.fps"),
		SnapshotEvery:     viper.GetInt("frame.snapshotEvery"),
		MeshCacheVertices: viper.GetInt64("frame.meshCacheVertices"),
	}
}

// GetStorageConfig returns storage backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		OutboxSize:    viper.GetInt("storage.outboxSize"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
			MaxFrames:      viper.GetInt("storage.memory.maxFrames"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		WebSocket: WebSocketConfig{
			URL:    viper.GetString("storage.websocket.url"),
			Secret: viper.GetString("storage.websocket.secret"),
		},
		FallbackPath: viper.GetString("storage.postgres.fallbackPath"),
	}
}

// GetArchiveConfig returns session archive settings.
func GetArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Enabled: viper.GetBool("archive.enabled"),
		URL:     viper.GetString("archive.url"),
		APIKey:  viper.GetString("archive.apiKey"),
		Timeout: viper.GetDuration("archive.timeout"),
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetInfluxConfig returns InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetLoggingConfig returns log sink settings.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		MaxSizeMB:      viper.GetInt("logging.maxSizeMB"),
		MaxBackups:     viper.GetInt("logging.maxBackups"),
		MaxAgeDays:     viper.GetInt("logging.maxAgeDays"),
		Compress:       viper.GetBool("logging.compress"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}
