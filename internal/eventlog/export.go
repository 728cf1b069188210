package eventlog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Exporter hands a serialized log to the outside world.
type Exporter interface {
	Export(now time.Time, csv []byte) (string, error)
}

// FileName returns the export file name for a given time.
func FileName(now time.Time) string {
	return fmt.Sprintf("radiation_log_%d.csv", now.UnixMilli())
}

// FileExporter writes exports into a directory.
type FileExporter struct {
	Dir string
}

// Export writes csv to Dir and returns the path written.
func (f FileExporter) Export(now time.Time, csv []byte) (string, error) {
	dir := f.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, csv, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	log.Printf("eventlog: exported %d bytes to %s", len(csv), path)
	return path, nil
}
