package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmap/dotmap/pkg/core"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Points: writeFile(t, dir, "points.json", `[[0,0],[1,0],[2,0.5]]`),
		Hotspots: []HotspotFile{
			{Type: "office", Path: writeFile(t, dir, "offices.json", `[
				{"id":"hq","lat":52.5,"lon":13.4,"label":"HQ","message":"Main office"},
				{"id":"branch","lat":48.1,"lon":11.6,"label":"Branch"}
			]`)},
			{Type: "lab", Path: writeFile(t, dir, "labs.json", `[{"id":"lab1","type":"ignored","lat":1,"lon":2}]`)},
		},
	}

	d, err := Load(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []core.GridPoint{{0, 0}, {1, 0}, {2, 0.5}}, d.Points)
	require.Len(t, d.Hotspots, 3)
	assert.Equal(t, "hq", d.Hotspots[0].ID)
	assert.Equal(t, "office", d.Hotspots[0].Type)
	assert.Equal(t, "Main office", d.Hotspots[0].Message)
	assert.Equal(t, "branch", d.Hotspots[1].ID)
	assert.Equal(t, "lab", d.Hotspots[2].Type)
	assert.Equal(t, []string{cfg.Points, cfg.Hotspots[0].Path, cfg.Hotspots[1].Path}, d.Names)
}

func TestLoad_AllOrNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Points: writeFile(t, dir, "points.json", `[[0,0]]`),
		Hotspots: []HotspotFile{
			{Type: "office", Path: writeFile(t, dir, "ok.json", `[]`)},
			{Type: "lab", Path: filepath.Join(dir, "missing.json")},
		},
	}

	d, err := Load(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(context.Background(), Config{Points: writeFile(t, dir, "points.json", `{"not":"a list"}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestLoad_EmptyPaths(t *testing.T) {
	_, err := Load(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Load(context.Background(), Config{Points: "p.json", Hotspots: []HotspotFile{{Type: "x", Path: " "}}})
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestLoad_Cancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, Config{Points: writeFile(t, dir, "points.json", `[]`)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadHotspots_KeepsOwnTypeWhenBlank(t *testing.T) {
	dir := t.TempDir()
	recs, err := ReadHotspots(context.Background(), writeFile(t, dir, "h.json", `[{"id":"a","type":"depot"}]`), "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "depot", recs[0].Type)
}
