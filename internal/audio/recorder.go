// Package audio provides microphone capture and WAV file reading.
package audio

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate - capture rate expected by the recognition models.
	SampleRate = 16000
	// Channels - number of capture channels (mono).
	Channels = 1
	// FramesPerBuffer - samples read from the device per cycle.
	FramesPerBuffer = 1024
)

// Recorder captures PCM16 audio from the default microphone and delivers
// it as little-endian byte chunks on a channel.
type Recorder struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	buffer  []int16
	chunks  chan []byte
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// New initializes portaudio and creates a Recorder.
func New() (*Recorder, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	return &Recorder{
		buffer: make([]int16, FramesPerBuffer),
	}, nil
}

// Start opens the input stream and begins delivering chunks.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(
		Channels,        // input channels
		0,               // output channels
		SampleRate,      // sample rate
		FramesPerBuffer, // frames per buffer
		r.buffer,        // buffer
	)
	if err != nil {
		return err
	}

	r.stream = stream
	r.chunks = make(chan []byte, 8)
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.running = true

	if err := stream.Start(); err != nil {
		stream.Close()
		r.stream = nil
		r.running = false
		return err
	}

	go r.recordLoop()

	return nil
}

// Chunks returns the capture channel. It is closed when recording stops.
func (r *Recorder) Chunks() <-chan []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chunks
}

func (r *Recorder) recordLoop() {
	defer close(r.done)
	defer close(r.chunks)

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		r.mu.Lock()
		stream := r.stream
		r.mu.Unlock()
		if stream == nil {
			return
		}

		// Poll instead of blocking in Read so stop stays responsive.
		available, err := stream.AvailableToRead()
		if err != nil || available < FramesPerBuffer {
			select {
			case <-r.stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		if err := stream.Read(); err != nil {
			select {
			case <-r.stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		chunk := make([]byte, len(r.buffer)*2)
		for i, sample := range r.buffer {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}

		select {
		case r.chunks <- chunk:
		case <-r.stop:
			return
		}
	}
}

// Stop ends the capture and closes the chunk channel.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stop)
	stream := r.stream
	r.stream = nil
	done := r.done
	r.mu.Unlock()

	<-done

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
}

// IsRecording reports whether capture is active.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close stops recording and releases portaudio.
func (r *Recorder) Close() {
	r.Stop()
	portaudio.Terminate()
}
