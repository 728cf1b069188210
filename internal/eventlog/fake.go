package eventlog

import (
	"sync"
	"time"
)

// FakeExporter records exports for test assertions.
type FakeExporter struct {
	mu sync.Mutex

	// Exports contains the CSV bodies handed to Export.
	Exports [][]byte

	// Times contains the export timestamps.
	Times []time.Time

	// ExportError, if set, will be returned by Export.
	ExportError error
}

// Export records the CSV body.
func (f *FakeExporter) Export(now time.Time, csv []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ExportError != nil {
		return "", f.ExportError
	}
	f.Exports = append(f.Exports, append([]byte(nil), csv...))
	f.Times = append(f.Times, now)
	return FileName(now), nil
}

// Count returns the number of successful exports.
func (f *FakeExporter) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Exports)
}
