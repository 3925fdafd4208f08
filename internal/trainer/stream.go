package trainer

import "context"

// StreamPCM splits raw PCM audio into chunks and delivers them on a
// channel, for running a session over a recording instead of a live
// microphone. The channel closes after the last chunk.
func StreamPCM(ctx context.Context, pcm []byte, chunkSize int) <-chan []byte {
	if chunkSize <= 0 {
		chunkSize = 4096
	}

	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		for offset := 0; offset < len(pcm); offset += chunkSize {
			end := offset + chunkSize
			if end > len(pcm) {
				end = len(pcm)
			}
			select {
			case chunks <- pcm[offset:end]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return chunks
}
