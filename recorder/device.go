package recorder

import (
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// portaudioDevice captures from the default input device via portaudio's
// callback API.
type portaudioDevice struct {
	stream *portaudio.Stream
}

func newPortaudioDevice() (*portaudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &portaudioDevice{}, nil
}

// start opens and starts the default input stream. portaudio reports hard
// failures synchronously from open/start/stop, so the async error callback is
// never invoked by this backend.
func (d *portaudioDevice) start(onBlock func([]int16), _ func(error)) error {
	stream, err := portaudio.OpenDefaultStream(
		Channels, 0, float64(SampleRate), FramesPerBuffer,
		func(in []int16, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
			if flags&portaudio.InputOverflow != 0 {
				// Transient; capture continues.
				slog.Warn("audio input overflow")
			}
			block := make([]int16, len(in))
			copy(block, in)
			onBlock(block)
		},
	)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	d.stream = stream
	return nil
}

func (d *portaudioDevice) stop() error {
	if d.stream == nil {
		return nil
	}
	stream := d.stream
	d.stream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("stop input stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("close input stream: %w", err)
	}
	return nil
}

func (d *portaudioDevice) close() error {
	if err := d.stop(); err != nil {
		slog.Warn("stop stream on close", "error", err)
	}
	return portaudio.Terminate()
}
