// Package recorder owns the lifecycle of a single microphone capture session.
//
// The device callback produces fixed-size sample blocks into a bounded
// hand-off queue; a dedicated consumer goroutine drains the queue into the
// accumulating take. Stop signals the consumer, joins it with a bounded
// timeout and returns the concatenated samples, transferring ownership to
// the caller.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Capture parameters. 44.1kHz mono 16-bit, matching what the Gemini audio
// endpoints accept without resampling.
const (
	SampleRate      = 44100
	Channels        = 1
	FramesPerBuffer = 1024
)

const (
	// queueDepth bounds the block hand-off queue. At 1024 frames per block
	// this is well over half a second of slack before blocks are dropped.
	queueDepth = 32

	// joinTimeout bounds how long Stop waits for the consumer goroutine.
	joinTimeout = 2 * time.Second
)

// ErrAlreadyRecording is returned by Start while a session is active.
var ErrAlreadyRecording = errors.New("recording already in progress")

// ErrNotRecording is returned by Stop while no session is active.
var ErrNotRecording = errors.New("no recording in progress")

// ErrNoAudio is returned by Stop when the session captured nothing.
var ErrNoAudio = errors.New("no audio captured")

// device is the capture backend boundary. The production implementation is
// portaudio; tests inject a fake.
type device interface {
	// start opens the input stream. onBlock is called from the device
	// context with a block the receiver owns; onErr reports a hard device
	// failure after which no further blocks arrive. Backends whose API only
	// reports failures synchronously from start/stop never invoke onErr;
	// those failures surface as start/stop errors instead.
	start(onBlock func([]int16), onErr func(error)) error
	stop() error
	close() error
}

// Session records one take at a time from the default input device.
type Session struct {
	mu  sync.Mutex
	dev device

	// onFatal is invoked (off the lock) after a hard device error has
	// force-reset the session to idle.
	onFatal func(error)

	recording bool
	stopc     chan struct{}
	done      chan struct{}
	frames    []int16
}

// New creates a session backed by the default portaudio input device.
func New() (*Session, error) {
	dev, err := newPortaudioDevice()
	if err != nil {
		return nil, fmt.Errorf("init audio device: %w", err)
	}
	return &Session{dev: dev}, nil
}

func newSession(dev device) *Session {
	return &Session{dev: dev}
}

// OnFatal registers a callback for hard device errors. Set it before Start;
// it runs on the device goroutine after the session has reset to idle.
func (s *Session) OnFatal(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFatal = fn
}

// Recording reports whether a capture is active.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Start begins capturing. It fails with ErrAlreadyRecording while active.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording {
		return ErrAlreadyRecording
	}

	blocks := make(chan []int16, queueDepth)
	stopc := make(chan struct{})
	done := make(chan struct{})

	err := s.dev.start(func(block []int16) {
		// Device context: never block. A full queue means the consumer is
		// stalled; dropping is preferable to stalling the device.
		select {
		case blocks <- block:
		default:
			slog.Warn("audio hand-off queue full, dropping block", "samples", len(block))
		}
	}, s.deviceFailed)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	s.recording = true
	s.stopc = stopc
	s.done = done
	s.frames = nil

	go s.drain(blocks, stopc, done)
	return nil
}

// drain is the consumer goroutine. It appends queued blocks to the take
// until the stop signal, then flushes whatever is already queued.
func (s *Session) drain(blocks chan []int16, stopc, done chan struct{}) {
	defer close(done)

	for {
		select {
		case block := <-blocks:
			s.append(block)
		case <-stopc:
			for {
				select {
				case block := <-blocks:
					s.append(block)
				default:
					return
				}
			}
		}
	}
}

func (s *Session) append(block []int16) {
	s.mu.Lock()
	s.frames = append(s.frames, block...)
	s.mu.Unlock()
}

// Stop ends the capture and returns the ordered concatenation of everything
// recorded. The session transitions to idle even if the consumer misses the
// join timeout. Returns ErrNotRecording while idle and ErrNoAudio when the
// take is empty.
func (s *Session) Stop() ([]int16, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return nil, ErrNotRecording
	}
	s.recording = false
	stopc, done := s.stopc, s.done
	s.stopc, s.done = nil, nil
	s.mu.Unlock()

	// Quiet the device before signalling the consumer so the flush pass
	// sees the final blocks.
	if err := s.dev.stop(); err != nil {
		slog.Warn("stop audio device", "error", err)
	}

	close(stopc)
	select {
	case <-done:
	case <-time.After(joinTimeout):
		slog.Warn("capture consumer did not exit before timeout", "timeout", joinTimeout)
	}

	s.mu.Lock()
	frames := s.frames
	s.frames = nil
	s.mu.Unlock()

	if len(frames) == 0 {
		return nil, ErrNoAudio
	}
	return frames, nil
}

// deviceFailed force-resets to idle after a hard device error and surfaces
// the failure through OnFatal. Transient device warnings never take this
// path; they are logged by the device implementation.
func (s *Session) deviceFailed(err error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return
	}
	s.recording = false
	stopc := s.stopc
	s.stopc, s.done = nil, nil
	s.frames = nil
	onFatal := s.onFatal
	s.mu.Unlock()

	close(stopc)
	if stopErr := s.dev.stop(); stopErr != nil {
		slog.Warn("stop audio device after failure", "error", stopErr)
	}

	slog.Error("audio device failure, recording aborted", "error", err)
	if onFatal != nil {
		onFatal(err)
	}
}

// Close stops any active capture and releases the device.
func (s *Session) Close() {
	if _, err := s.Stop(); err != nil && !errors.Is(err, ErrNotRecording) && !errors.Is(err, ErrNoAudio) {
		slog.Warn("stop recording on close", "error", err)
	}
	if err := s.dev.close(); err != nil {
		slog.Warn("close audio device", "error", err)
	}
}
