// Package progress converts byte-level progress of the unit in flight into
// per-file and overall percentages for an upload session.
package progress

import (
	"math"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Aggregator tracks the progress of every file in a session. A unit is the
// set of files in flight: a batch, or a single file on the direct path.
// It is not safe for concurrent use.
type Aggregator struct {
	files     map[string]int
	total     int
	completed int
	overall   int
	unit      []unitFile
}

type unitFile struct {
	name   string
	offset int64 // byte offset of the file within the unit stream
	size   int64
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an aggregator for the named files, all at zero percent.
func New(names []string) *Aggregator {
	a := new(Aggregator)
	a.files = make(map[string]int, len(names))
	for _, name := range names {
		a.files[name] = 0
	}
	a.total = len(names)
	return a
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Percent returns the overall percentage for a session of total files when
// completed files have finished and the unit of inUnit files is at ratio,
// rounded and clamped to [0,100]. A session with no files is complete.
func Percent(completed int, ratio float64, inUnit, total int) int {
	if total <= 0 {
		return 100
	}
	ratio = math.Max(0, math.Min(1, ratio))
	pct := int(math.Round(100 * (float64(completed) + ratio*float64(inUnit)) / float64(total)))
	return max(0, min(100, pct))
}

// Begin starts a new unit with the given files, in stream order. Files
// which have already failed are not part of the unit.
func (a *Aggregator) Begin(files []schema.FileDescriptor) {
	a.unit = a.unit[:0]
	var offset int64
	for _, f := range files {
		if a.files[f.Name] == schema.Failed {
			continue
		}
		a.unit = append(a.unit, unitFile{name: f.Name, offset: offset, size: f.Size})
		offset += f.Size
	}
}

// Update applies byte progress of the unit in flight: written of total
// bytes have been sent.
func (a *Aggregator) Update(written, total int64) {
	var ratio float64
	if total > 0 {
		ratio = float64(written) / float64(total)
	}

	// Per-file progress from the byte offset of each file in the stream
	for _, f := range a.unit {
		if a.files[f.name] == schema.Failed || f.size == 0 {
			continue
		}
		sent := written - f.offset
		if sent <= 0 {
			continue
		}
		pct := int(math.Floor(100 * float64(min(sent, f.size)) / float64(f.size)))
		a.files[f.name] = max(a.files[f.name], pct)
	}

	a.advance(Percent(a.completed, ratio, len(a.unit), a.total))
}

// Complete marks every unresolved file in the unit as done.
func (a *Aggregator) Complete() {
	for _, f := range a.unit {
		if a.files[f.name] == schema.Failed {
			continue
		}
		a.files[f.name] = 100
		a.completed++
	}
	a.unit = a.unit[:0]
	a.advance(Percent(a.completed, 0, 0, a.total))
}

// Fail marks the named files as failed. Failed files never count as
// completed and are removed from the unit in flight.
func (a *Aggregator) Fail(names ...string) {
	for _, name := range names {
		if _, exists := a.files[name]; exists {
			a.files[name] = schema.Failed
		}
	}
	unit := a.unit[:0]
	for _, f := range a.unit {
		if a.files[f.name] != schema.Failed {
			unit = append(unit, f)
		}
	}
	a.unit = unit
}

// Completed returns the number of files which have finished.
func (a *Aggregator) Completed() int {
	return a.completed
}

// Snapshot returns a copy of the current progress.
func (a *Aggregator) Snapshot() schema.UploadProgress {
	return schema.UploadProgress{Files: a.files, Overall: a.overall}.Clone()
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// advance moves the overall percentage forward, never back.
func (a *Aggregator) advance(pct int) {
	a.overall = max(a.overall, pct)
}
