package transport

import "bytes"

// LineBuffer accumulates raw reads and hands back complete
// newline-terminated lines one at a time. Backends share it so line
// framing behaves identically no matter how the bytes arrived.
type LineBuffer struct {
	buf []byte
}

// Write appends raw bytes from an underlying read.
func (lb *LineBuffer) Write(data []byte) {
	lb.buf = append(lb.buf, data...)
}

// Line pops the oldest complete line, stripping the trailing newline
// and any preceding carriage return. The bool return reports whether a
// complete line was available.
func (lb *LineBuffer) Line() (string, bool) {
	idx := bytes.IndexByte(lb.buf, '\n')
	if idx < 0 {
		return "", false
	}
	line := lb.buf[:idx]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	out := string(line)
	lb.buf = lb.buf[idx+1:]
	return out, true
}

// Pending returns the number of buffered bytes not yet consumed.
func (lb *LineBuffer) Pending() int {
	return len(lb.buf)
}

// Reset drops any buffered partial line.
func (lb *LineBuffer) Reset() {
	lb.buf = nil
}
