// Package sse reads and writes the line-delimited frames of the research stream.
package sse

import "bytes"

// DataPrefix marks a frame that carries an event payload.
const DataPrefix = "data: "

// Decoder turns arbitrarily split byte chunks into data frame payloads.
// Bytes after the last line break are held until the next Feed or Flush.
type Decoder struct {
	buf []byte
}

// Feed appends chunk to the pending bytes and returns the payload of every
// complete data line. Non-data lines, including the blank lines that
// separate events, are dropped.
func (d *Decoder) Feed(chunk []byte) []string {
	d.buf = append(d.buf, chunk...)

	var payloads []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		if p, ok := dataPayload(d.buf[:i]); ok {
			payloads = append(payloads, p)
		}
		d.buf = d.buf[i+1:]
	}

	// Drop the consumed prefix so the backing array does not grow forever.
	if len(d.buf) == 0 {
		d.buf = nil
	} else if cap(d.buf) > 4*len(d.buf) && cap(d.buf) > 4096 {
		d.buf = append([]byte(nil), d.buf...)
	}
	return payloads
}

// Flush is called once the stream has ended. An unterminated trailing line is
// decoded as if it had been followed by a line break.
func (d *Decoder) Flush() []string {
	if len(d.buf) == 0 {
		return nil
	}
	line := d.buf
	d.buf = nil
	if p, ok := dataPayload(line); ok {
		return []string{p}
	}
	return nil
}

// Pending reports how many bytes are waiting for a line break.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func dataPayload(line []byte) (string, bool) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if !bytes.HasPrefix(line, []byte(DataPrefix)) {
		return "", false
	}
	return string(line[len(DataPrefix):]), true
}
