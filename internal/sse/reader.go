// Package sse consumes the chat endpoint's event stream: newline-delimited
// "data: " frames carrying OpenAI-style chunk objects, terminated by
// "data: [DONE]".
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DefaultMaxRetries is how many further reads a frame that fails to
	// decode is kept for before it is discarded.
	DefaultMaxRetries = 3

	// DefaultMaxBuffer bounds the bytes held while waiting for a newline.
	DefaultMaxBuffer = 1 << 20

	readSize = 4096
)

var (
	dataPrefix = []byte("data: ")
	doneMarker = []byte("[DONE]")
)

// ErrBufferOverflow is returned when buffered bytes exceed MaxBuffer.
var ErrBufferOverflow = errors.New("sse: frame buffer limit exceeded")

// DeltaFunc receives the accumulated text after every non-empty delta.
type DeltaFunc func(total string)

type chunk struct {
	Choices []struct {
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Reader reassembles frames from arbitrarily split byte chunks.
// A Reader is not safe for concurrent use.
type Reader struct {
	MaxRetries int
	MaxBuffer  int
	OnDelta    DeltaFunc

	buf     []byte
	text    strings.Builder
	done    bool
	retries int
	dropped int
	final   bool
}

// NewReader returns a Reader with default limits.
func NewReader(onDelta DeltaFunc) *Reader {
	return &Reader{
		MaxRetries: DefaultMaxRetries,
		MaxBuffer:  DefaultMaxBuffer,
		OnDelta:    onDelta,
	}
}

// Feed appends p to the pending buffer and processes every complete frame.
// Input after the [DONE] frame is ignored.
func (r *Reader) Feed(p []byte) error {
	if r.done {
		return nil
	}
	r.buf = append(r.buf, p...)

	for !r.done {
		i := bytes.IndexByte(r.buf, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(r.buf[:i], []byte("\r"))
		rest := r.buf[i+1:]

		if len(bytes.TrimSpace(line)) == 0 || line[0] == ':' || !bytes.HasPrefix(line, dataPrefix) {
			r.buf = rest
			continue
		}

		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if bytes.Equal(payload, doneMarker) {
			r.done = true
			r.buf = rest
			break
		}

		var c chunk
		if err := json.Unmarshal(payload, &c); err != nil {
			// Leave the frame at the head of the buffer and wait for more
			// bytes, unless it has already been retried too often or no
			// more bytes will come.
			if !r.final && r.retries < r.maxRetries() {
				r.retries++
				break
			}
			r.retries = 0
			r.dropped++
			r.buf = rest
			continue
		}

		r.retries = 0
		r.buf = rest
		if len(c.Choices) > 0 && c.Choices[0].Delta != nil && c.Choices[0].Delta.Content != "" {
			r.text.WriteString(c.Choices[0].Delta.Content)
			if r.OnDelta != nil {
				r.OnDelta(r.text.String())
			}
		}
	}

	if r.done {
		r.buf = nil
		return nil
	}
	if len(r.buf) > r.maxBuffer() {
		return fmt.Errorf("%w: %d bytes pending", ErrBufferOverflow, len(r.buf))
	}
	// Compact so the backing array does not grow with the whole stream.
	r.buf = append([]byte(nil), r.buf...)
	return nil
}

// Finish is called once the body is exhausted. A frame still held for
// retry is discarded and the complete lines behind it are processed, so the
// result does not depend on how the stream was split. A trailing partial
// line is dropped.
func (r *Reader) Finish() error {
	if r.done {
		return nil
	}
	r.final = true
	if err := r.Feed(nil); err != nil {
		return err
	}
	r.buf = nil
	return nil
}

// Done reports whether the [DONE] frame was seen.
func (r *Reader) Done() bool { return r.done }

// Text returns the accumulated assistant text.
func (r *Reader) Text() string { return r.text.String() }

// Dropped returns the number of frames discarded after repeated decode failures.
func (r *Reader) Dropped() int { return r.dropped }

func (r *Reader) maxRetries() int {
	if r.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return r.MaxRetries
}

func (r *Reader) maxBuffer() int {
	if r.MaxBuffer <= 0 {
		return DefaultMaxBuffer
	}
	return r.MaxBuffer
}

// Consume reads body until [DONE] or EOF and returns the accumulated text.
// On error the text accumulated so far is returned alongside it.
func (r *Reader) Consume(ctx context.Context, body io.Reader) (string, error) {
	buf := make([]byte, readSize)
	for {
		select {
		case <-ctx.Done():
			return r.Text(), ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if ferr := r.Feed(buf[:n]); ferr != nil {
				return r.Text(), ferr
			}
			if r.done {
				return r.Text(), nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return r.Text(), r.Finish()
			}
			return r.Text(), fmt.Errorf("failed to read stream: %w", err)
		}
	}
}

// Consume is a convenience wrapper around NewReader(onDelta).Consume.
func Consume(ctx context.Context, body io.Reader, onDelta DeltaFunc) (string, error) {
	return NewReader(onDelta).Consume(ctx, body)
}
