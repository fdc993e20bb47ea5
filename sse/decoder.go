package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"streamchat/model"
)

// MaxLineSize bounds a single frame line. Longer lines are skipped like any
// other malformed frame.
const MaxLineSize = 1024 * 1024

// Decoder reads chunks from a framed stream incrementally. Line boundaries may
// fall anywhere across reads of the underlying reader.
type Decoder struct {
	r       *bufio.Reader
	line    []byte
	logger  *log.Logger
	skipped int
}

// NewDecoder returns a Decoder reading from r. Malformed frames are reported
// to logger and skipped; a nil logger discards them.
func NewDecoder(r io.Reader, logger *log.Logger) *Decoder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024), logger: logger}
}

// Next returns the next well-formed chunk. It returns io.EOF once the
// underlying reader is exhausted.
func (d *Decoder) Next() (model.StreamChunk, error) {
	for {
		line, err := d.readLine()
		if err == io.EOF {
			return model.StreamChunk{}, io.EOF
		}
		if err != nil {
			return model.StreamChunk{}, fmt.Errorf("failed to read stream: %w", err)
		}

		line = bytes.TrimSuffix(line, []byte("\r"))
		if !bytes.HasPrefix(line, []byte(DataPrefix)) {
			continue
		}
		payload := line[len(DataPrefix):]

		var chunk model.StreamChunk
		if err := json.Unmarshal(payload, &chunk); err != nil {
			d.skipped++
			d.logger.Printf("[SSE] skipping malformed chunk %q: %v", payload, err)
			continue
		}
		if !chunk.Known() {
			d.skipped++
			d.logger.Printf("[SSE] skipping chunk with unknown type %q", chunk.Type)
			continue
		}
		return chunk, nil
	}
}

// readLine returns the next line without its LF. Lines over MaxLineSize are
// consumed and dropped. A final line without LF is returned before io.EOF.
func (d *Decoder) readLine() ([]byte, error) {
	d.line = d.line[:0]
	oversized := 0

	for {
		frag, err := d.r.ReadSlice('\n')
		if oversized > 0 {
			oversized += len(frag)
		} else if len(d.line)+len(frag) > MaxLineSize+1 {
			oversized = len(d.line) + len(frag)
			d.line = d.line[:0]
		} else {
			d.line = append(d.line, frag...)
		}

		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			if oversized > 0 {
				d.dropOversized(oversized)
				return nil, io.EOF
			}
			if len(d.line) == 0 {
				return nil, io.EOF
			}
			return d.line, nil
		case err != nil:
			return nil, err
		}

		if oversized > 0 {
			d.dropOversized(oversized)
			d.line = d.line[:0]
			oversized = 0
			continue
		}
		return bytes.TrimSuffix(d.line, []byte("\n")), nil
	}
}

func (d *Decoder) dropOversized(n int) {
	d.skipped++
	d.logger.Printf("[SSE] skipping %d-byte line over the %d-byte limit", n, MaxLineSize)
}

// Skipped returns how many malformed frames have been dropped so far.
func (d *Decoder) Skipped() int {
	return d.skipped
}
