package adopt

import (
	"io"
	"strings"
	"time"
)

const readBufferSize = 4096

// pump reads a blocking stream on its own goroutine so the session can
// poll for output without blocking
type pump struct {
	chunks chan []byte
	quit   chan struct{}
	eof    bool
}

func newPump(r io.Reader) *pump {
	p := &pump{
		chunks: make(chan []byte, 64),
		quit:   make(chan struct{}),
	}
	go p.read(r)
	return p
}

func (p *pump) read(r io.Reader) {
	defer close(p.chunks)

	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case p.chunks <- data:
			case <-p.quit:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// available returns everything read so far without blocking. eof is true
// once the stream ended and every chunk has been returned.
func (p *pump) available() (string, bool) {
	if p.eof {
		return "", true
	}

	var b strings.Builder
	for {
		select {
		case data, ok := <-p.chunks:
			if !ok {
				p.eof = true
				return b.String(), true
			}
			b.Write(data)
		default:
			return b.String(), false
		}
	}
}

// waitEOF discards output until the stream ends or timeout passes
func (p *pump) waitEOF(timeout time.Duration) {
	if p.eof {
		return
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-p.chunks:
			if !ok {
				p.eof = true
				return
			}
		case <-timer.C:
			return
		}
	}
}

func (p *pump) stop() {
	close(p.quit)
}
