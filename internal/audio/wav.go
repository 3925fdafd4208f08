package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// WAVInfo holds the parsed RIFF/WAV header fields.
type WAVInfo struct {
	SampleRate    int
	NumChannels   int
	BitsPerSample int
	NumSamples    int
}

// ReadWAV reads a 16-bit PCM WAV stream and returns mono little-endian
// PCM16 bytes ready for the recognizer. Stereo input is downmixed by
// averaging the channels.
func ReadWAV(r io.ReadSeeker) ([]byte, WAVInfo, error) {
	var info WAVInfo

	var riffID [4]byte
	if err := binary.Read(r, binary.LittleEndian, &riffID); err != nil {
		return nil, info, fmt.Errorf("read RIFF ID: %w", err)
	}
	if string(riffID[:]) != "RIFF" {
		return nil, info, errors.New("not a RIFF file")
	}

	var fileSize uint32
	if err := binary.Read(r, binary.LittleEndian, &fileSize); err != nil {
		return nil, info, fmt.Errorf("read file size: %w", err)
	}

	var waveID [4]byte
	if err := binary.Read(r, binary.LittleEndian, &waveID); err != nil {
		return nil, info, fmt.Errorf("read WAVE ID: %w", err)
	}
	if string(waveID[:]) != "WAVE" {
		return nil, info, errors.New("not a WAVE file")
	}

	var fmtFound, dataFound bool
	var pcm []byte

	for {
		var chunkID [4]byte
		if err := binary.Read(r, binary.LittleEndian, &chunkID); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, info, fmt.Errorf("read chunk ID: %w", err)
		}

		var chunkSize uint32
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return nil, info, fmt.Errorf("read chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			if err := readFmtChunk(r, chunkSize, &info); err != nil {
				return nil, info, err
			}
			fmtFound = true

		case "data":
			if !fmtFound {
				return nil, info, errors.New("data chunk before fmt chunk")
			}
			var err error
			pcm, err = readDataChunk(r, chunkSize, &info)
			if err != nil {
				return nil, info, err
			}
			dataFound = true

		default:
			// Skip unknown chunks; align to even boundary.
			skip := int64(chunkSize)
			if chunkSize%2 != 0 {
				skip++
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return nil, info, fmt.Errorf("skip chunk %q: %w", chunkID, err)
			}
		}

		if fmtFound && dataFound {
			break
		}
	}

	if !fmtFound {
		return nil, info, errors.New("missing fmt chunk")
	}
	if !dataFound {
		return nil, info, errors.New("missing data chunk")
	}

	return pcm, info, nil
}

// ReadWAVFile is a convenience wrapper that opens a file path.
func ReadWAVFile(path string) ([]byte, WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WAVInfo{}, err
	}
	defer f.Close()
	return ReadWAV(f)
}

func readFmtChunk(r io.ReadSeeker, size uint32, info *WAVInfo) error {
	var audioFormat uint16
	if err := binary.Read(r, binary.LittleEndian, &audioFormat); err != nil {
		return fmt.Errorf("read audio format: %w", err)
	}
	if audioFormat != 1 {
		return fmt.Errorf("unsupported audio format %d (only PCM=1 supported)", audioFormat)
	}

	var numChannels uint16
	if err := binary.Read(r, binary.LittleEndian, &numChannels); err != nil {
		return fmt.Errorf("read num channels: %w", err)
	}
	if numChannels != 1 && numChannels != 2 {
		return fmt.Errorf("unsupported channel count %d (only mono and stereo supported)", numChannels)
	}
	info.NumChannels = int(numChannels)

	var sampleRate uint32
	if err := binary.Read(r, binary.LittleEndian, &sampleRate); err != nil {
		return fmt.Errorf("read sample rate: %w", err)
	}
	info.SampleRate = int(sampleRate)

	// Skip byteRate (4 bytes) and blockAlign (2 bytes).
	if _, err := r.Seek(6, io.SeekCurrent); err != nil {
		return fmt.Errorf("skip byte rate / block align: %w", err)
	}

	var bitsPerSample uint16
	if err := binary.Read(r, binary.LittleEndian, &bitsPerSample); err != nil {
		return fmt.Errorf("read bits per sample: %w", err)
	}
	if bitsPerSample != 16 {
		return fmt.Errorf("unsupported bits per sample %d (only 16 supported)", bitsPerSample)
	}
	info.BitsPerSample = int(bitsPerSample)

	// Skip any extra fmt bytes.
	consumed := uint32(16)
	if size > consumed {
		if _, err := r.Seek(int64(size-consumed), io.SeekCurrent); err != nil {
			return fmt.Errorf("skip extra fmt bytes: %w", err)
		}
	}

	return nil
}

func readDataChunk(r io.ReadSeeker, size uint32, info *WAVInfo) ([]byte, error) {
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read data chunk: %w", err)
	}

	if info.NumChannels == 1 {
		info.NumSamples = len(raw) / 2
		return raw, nil
	}

	// Downmix stereo to mono by averaging the channels.
	frames := len(raw) / 4
	mono := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		right := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		mixed := int16((int32(left) + int32(right)) / 2)
		binary.LittleEndian.PutUint16(mono[i*2:], uint16(mixed))
	}
	info.NumSamples = frames
	return mono, nil
}
