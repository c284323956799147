package feed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/courtside/internal/ports"
)

// Replay reads newline-delimited JSON records. Blank lines and lines starting
// with '#' are skipped; a malformed line is logged and skipped so one bad
// record does not end the game.
type Replay struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	skipped int
}

var _ ports.EventSource = (*Replay)(nil)

// NewReplay reads records from r.
func NewReplay(r io.Reader) *Replay {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Replay{scanner: sc}
}

// OpenReplay opens a replay file.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed.OpenReplay: %w", err)
	}
	r := NewReplay(f)
	r.closer = f
	return r, nil
}

// Next returns the next record, or io.EOF at the end of the input.
func (r *Replay) Next(ctx context.Context) (ports.Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return ports.Message{}, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return ports.Message{}, fmt.Errorf("feed.Replay: line %d: %w", r.line+1, err)
			}
			return ports.Message{}, io.EOF
		}
		r.line++

		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		msg, err := Decode(line)
		if err != nil {
			r.skipped++
			slog.Warn("feed: skipping record", "line", r.line, "err", err)
			continue
		}
		return msg, nil
	}
}

// Skipped is the number of malformed records skipped so far.
func (r *Replay) Skipped() int { return r.skipped }

// Close closes the underlying file, if any.
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
