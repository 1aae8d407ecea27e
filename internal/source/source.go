// Package source loads the point and hotspot files a map is built from.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dotmap/dotmap/pkg/core"
)

// ErrEmptySource is returned when a configured path is blank.
var ErrEmptySource = errors.New("empty source path")

// HotspotFile is one hotspot file. Every record read from it is tagged
// with Type.
type HotspotFile struct {
	Type string
	Path string
}

// Config lists the files to load.
type Config struct {
	Points   string
	Hotspots []HotspotFile
}

// Data is the result of a successful load. Hotspots keep file order, then
// record order.
type Data struct {
	Points   []core.GridPoint
	Hotspots []core.HotspotSource
	Names    []string
}

// Load reads every file concurrently. Any failure cancels the rest and
// returns the first error with no partial data.
func Load(ctx context.Context, cfg Config) (*Data, error) {
	if strings.TrimSpace(cfg.Points) == "" {
		return nil, fmt.Errorf("points: %w", ErrEmptySource)
	}
	for i, h := range cfg.Hotspots {
		if strings.TrimSpace(h.Path) == "" {
			return nil, fmt.Errorf("hotspots[%d]: %w", i, ErrEmptySource)
		}
	}

	var points []core.GridPoint
	perFile := make([][]core.HotspotSource, len(cfg.Hotspots))
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		points, err = ReadPoints(gctx, cfg.Points)
		return err
	})
	for i, h := range cfg.Hotspots {
		i, h := i, h
		g.Go(func() error {
			recs, err := ReadHotspots(gctx, h.Path, h.Type)
			if err != nil {
				return err
			}
			perFile[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Data{Points: points, Names: []string{cfg.Points}}
	for i, recs := range perFile {
		d.Hotspots = append(d.Hotspots, recs...)
		d.Names = append(d.Names, cfg.Hotspots[i].Path)
	}
	return d, nil
}

// ReadPoints decodes a JSON array of [x, y] pairs.
func ReadPoints(ctx context.Context, path string) ([]core.GridPoint, error) {
	var pts []core.GridPoint
	if err := readJSON(ctx, path, &pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// ReadHotspots decodes a JSON array of hotspot records and tags each with
// typ. A record's own type is kept when typ is blank.
func ReadHotspots(ctx context.Context, path, typ string) ([]core.HotspotSource, error) {
	var recs []core.HotspotSource
	if err := readJSON(ctx, path, &recs); err != nil {
		return nil, err
	}
	if typ = strings.TrimSpace(typ); typ != "" {
		for i := range recs {
			recs[i].Type = typ
		}
	}
	return recs, nil
}

func readJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
