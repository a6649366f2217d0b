package httpclient

import "io"

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// progressChunk is the number of bytes read between successive progress
// callbacks.
const progressChunk int64 = 64 * 1024 // 64 KiB

///////////////////////////////////////////////////////////////////////////////
// TYPES

// progressReader reports the bytes read from a file as a position within
// a larger stream: base is the offset of the file within the stream and
// total is the stream length.
type progressReader struct {
	r        io.Reader
	base     int64
	total    int64
	written  int64
	lastEmit int64
	fn       ProgressFunc
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newProgressReader(r io.Reader, base, total int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, base: base, total: total, fn: fn}
}

///////////////////////////////////////////////////////////////////////////////
// io.Reader

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.written += int64(n)
		if r.written-r.lastEmit >= progressChunk {
			r.emit()
		}
	}
	if err == io.EOF && r.lastEmit != r.written {
		r.emit()
	}
	return n, err
}

func (r *progressReader) emit() {
	r.lastEmit = r.written
	r.fn(r.base+r.written, r.total)
}
