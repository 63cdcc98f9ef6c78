package transfer

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync/atomic"
)

// CaptureSurface is the scanning component that yields decoded text.
// The receiver pauses it while a transfer is processed.
type CaptureSurface interface {
	Pause()
	Resume()
}

type nopSurface struct{}

func (nopSurface) Pause()  {}
func (nopSurface) Resume() {}

// maxLineSize fits the largest QR payload with headroom for line wrapping.
const maxLineSize = 64 * 1024

// LineSurface turns newline-delimited decoded text (as printed by
// `zbarcam --raw`) into frames. Lines read while paused are dropped.
type LineSurface struct {
	r      io.Reader
	paused atomic.Bool
}

func NewLineSurface(r io.Reader) *LineSurface {
	return &LineSurface{r: r}
}

func (s *LineSurface) Pause() {
	s.paused.Store(true)
}

func (s *LineSurface) Resume() {
	s.paused.Store(false)
}

func (s *LineSurface) Paused() bool {
	return s.paused.Load()
}

// Frames starts reading and returns the frame channel. The channel closes at
// EOF, on read error, or when ctx is done; Err reports the read error.
func (s *LineSurface) Frames(ctx context.Context) (<-chan string, func() error) {
	out := make(chan string)
	var readErr atomic.Value
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(s.r)
		scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || s.paused.Load() {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr.Store(err)
		}
	}()
	return out, func() error {
		if err, ok := readErr.Load().(error); ok {
			return err
		}
		return nil
	}
}
