// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dotmap/dotmap/pkg/core"
)

// ExportVersion is bumped whenever the export layout changes.
const ExportVersion = 1

// Export is the root JSON structure of a session file
type Export struct {
	Version       int                  `json:"version"`
	Session       core.Session         `json:"session"`
	EndFrame      uint64               `json:"endFrame"`
	DroppedFrames int                  `json:"droppedFrames"`
	Frames        []core.FrameSnapshot `json:"frames"`
}

func (b *Backend) buildExport() Export {
	export := Export{
		Version:       ExportVersion,
		Session:       *b.session,
		DroppedFrames: b.dropped,
		Frames:        b.frames,
	}
	if export.Frames == nil {
		export.Frames = []core.FrameSnapshot{}
	}
	for _, f := range b.frames {
		if f.Frame > export.EndFrame {
			export.EndFrame = f.Frame
		}
	}
	return export
}

// exportJSON writes the session data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	timestamp := b.session.StartTime.Format("20060102_150405")
	filename := fmt.Sprintf("dotmap_%s_%s.json", timestamp, shortID(b.session.ID))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}
	b.exportPath = outputPath
	b.exportMeta = core.UploadMetadata{
		SessionID: export.Session.ID,
		Sources:   export.Session.Sources,
		Dots:      export.Session.Dots,
		Hotspots:  export.Session.Hotspots,
		EndFrame:  export.EndFrame,
	}
	if n := len(export.Frames); n > 0 {
		b.exportMeta.Duration = export.Frames[n-1].Elapsed
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "session"
	}
	return id
}

func writeJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return gzWriter.Close()
}
