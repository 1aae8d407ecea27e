package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" },
		"hover": { "radius": 4 }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
	assert.Equal(t, 4.0, GetHoverConfig().Radius)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./dotmaplogs", viper.GetString("logsDir"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "disable", viper.GetString("db.sslmode"))
	assert.Equal(t, "dotmap", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, "classic", viper.GetString("hotspots.layout.active"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("DOTMAP_HOVER_MAXLIFT", "2.5")

	require.NoError(t, Load(writeConfig(t, `{"hover": {"maxLift": 1.0}}`)))

	assert.Equal(t, 2.5, GetHoverConfig().MaxLift)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := writeConfig(t, `{}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DOTMAP_FRAME_FPS=24\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("DOTMAP_FRAME_FPS") })

	require.NoError(t, Load(dir))

	assert.Equal(t, 24, GetFrameConfig().FPS)
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestSceneDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	dots := GetDotsConfig()
	assert.Equal(t, 0.35, dots.Radius)
	assert.Equal(t, 0.6, dots.Height)
	assert.Equal(t, 1.0, dots.Spacing)

	hs, err := GetHotspotsConfig()
	require.NoError(t, err)
	assert.Equal(t, 1.6, hs.RadiusMultiplier)
	assert.Equal(t, 2.4, hs.HeightMultiplier)
	assert.Equal(t, "classic", hs.Layout.Active)
	assert.Empty(t, hs.Layout.Presets)

	fx := GetEffectsConfig()
	assert.True(t, fx.Idle.Enabled)
	assert.Equal(t, 0.12, fx.Idle.Amplitude)
	assert.Equal(t, 1.6, fx.Idle.Speed)
	assert.Equal(t, 0.7, fx.Idle.PhaseStep)
	assert.True(t, fx.Glow.Enabled)
	assert.Equal(t, 0.08, fx.Glow.Amplitude)

	line := GetConnectionLineConfig()
	assert.True(t, line.Enabled)
	assert.True(t, line.DrawSequential)
	assert.Equal(t, 24, line.Style.Segments)
	assert.Equal(t, 1.5, line.Style.ArcHeight)
	assert.Equal(t, "#7fd4ff", line.Style.Color)
	assert.Equal(t, 8, line.Style.RadialSegments)

	hover := GetHoverConfig()
	assert.Equal(t, 2.5, hover.Radius)
	assert.Equal(t, 1.2, hover.MaxLift)
	assert.Equal(t, 0.18, hover.Easing)
	assert.Equal(t, 0.001, hover.Threshold)

	inter := GetInteractionConfig()
	assert.Equal(t, 6, inter.HoverCooldownFrames)
	assert.Equal(t, 0.92, inter.HoverFalloff)

	frame := GetFrameConfig()
	assert.Equal(t, 60, frame.FPS)
	assert.Equal(t, 30, frame.SnapshotEvery)

	assert.Equal(t, "equirectangular", GetMapConfig().Projection)
}

func TestGetHotspotsConfig_Presets(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"hotspots": {
			"layout": {
				"active": "crystal",
				"byType": { "Office": "beacon" },
				"presets": {
					"crystal": { "shape": "crystal", "bodyHeightRatio": 0.5 },
					"beacon": { "radialSegments": 12, "color": "#ff0000" }
				}
			}
		}
	}`)))

	hs, err := GetHotspotsConfig()
	require.NoError(t, err)
	assert.Equal(t, "crystal", hs.Layout.Active)
	assert.Equal(t, "beacon", hs.Layout.ByType["office"])

	crystal, ok := hs.Layout.Presets["crystal"]
	require.True(t, ok)
	require.NotNil(t, crystal.Shape)
	assert.Equal(t, "crystal", *crystal.Shape)
	require.NotNil(t, crystal.BodyHeightRatio)
	assert.Equal(t, 0.5, *crystal.BodyHeightRatio)
	assert.Nil(t, crystal.DomeRatio)

	beacon := hs.Layout.Presets["beacon"]
	require.NotNil(t, beacon.RadialSegments)
	assert.Equal(t, 12, *beacon.RadialSegments)
	require.NotNil(t, beacon.Color)
	assert.Equal(t, "#ff0000", *beacon.Color)
}

func TestGetConnectionPairs(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"hotspots": {
			"connectionPairs": [
				{ "fromId": "a", "toId": "b" },
				{ "fromId": "b", "toId": "c", "color": "#00ff00", "segments": 12 }
			]
		}
	}`)))

	pairs, err := GetConnectionPairs()
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].FromID)
	assert.Equal(t, "b", pairs[0].ToID)
	assert.Nil(t, pairs[0].Color)
	require.NotNil(t, pairs[1].Color)
	assert.Equal(t, "#00ff00", *pairs[1].Color)
	require.NotNil(t, pairs[1].Segments)
	assert.Equal(t, 12, *pairs[1].Segments)
}

func TestGetConnectionPairs_None(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	pairs, err := GetConnectionPairs()
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestGetSourcesConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"sources": {
			"points": "/data/points.json",
			"hotspots": [
				{ "type": "office", "path": "/data/offices.json" },
				{ "type": "lab", "path": "/data/labs.json" }
			]
		}
	}`)))

	src, err := GetSourcesConfig()
	require.NoError(t, err)
	assert.Equal(t, "/data/points.json", src.Points)
	require.Len(t, src.Hotspots, 2)
	assert.Equal(t, HotspotSourceConfig{Type: "lab", Path: "/data/labs.json"}, src.Hotspots[1])
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, 256, cfg.OutboxSize)
	assert.Equal(t, 2*time.Second, cfg.FlushInterval)
	assert.Equal(t, "./recordings", cfg.Memory.OutputDir)
	assert.Equal(t, true, cfg.Memory.CompressOutput)
	assert.Equal(t, 0, cfg.Memory.MaxFrames)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": false, "maxFrames": 100 },
			"sqlite": { "dumpInterval": "10m" },
			"websocket": { "url": "ws://example:1/s", "secret": "s3" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, false, sc.Memory.CompressOutput)
	assert.Equal(t, 100, sc.Memory.MaxFrames)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
	assert.Equal(t, "ws://example:1/s", sc.WebSocket.URL)
	assert.Equal(t, "s3", sc.WebSocket.Secret)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "dotmap", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`)))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetArchiveConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"archive": {"enabled": true, "url": "https://maps.example", "apiKey": "k"}}`)))

	ac := GetArchiveConfig()
	assert.True(t, ac.Enabled)
	assert.Equal(t, "https://maps.example", ac.URL)
	assert.Equal(t, "k", ac.APIKey)
	assert.Equal(t, 30*time.Second, ac.Timeout)
}

func TestGetInfluxAndLoggingConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"influx": {"enabled": true, "bucket": "b"}, "graylog": {"enabled": true}}`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "b", ic.Bucket)
	assert.Equal(t, "8086", ic.Port)

	lc := GetLoggingConfig()
	assert.Equal(t, "info", lc.Level)
	assert.True(t, lc.GraylogEnabled)
	assert.Equal(t, 20, lc.MaxSizeMB)
}
