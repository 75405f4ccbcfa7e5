package audio

import "io"

// Buffer is a static, in-memory audio source used for file-replayed audio
// and for tests. Open and Close are no-ops and every call to Chunks restarts
// from the beginning of the buffer.
type Buffer struct {
	data []byte
	cfg  Config
}

// NewBuffer wraps raw PCM (or WAV) bytes as a Source.
func NewBuffer(data []byte, cfg Config) *Buffer {
	return &Buffer{data: data, cfg: cfg}
}

func (b *Buffer) Open() error { return nil }

func (b *Buffer) Close() error { return nil }

func (b *Buffer) Config() Config { return b.cfg }

// Chunks returns a fresh finite stream over the buffer, sliced into
// ChunkSize-byte blocks with the last block possibly short.
func (b *Buffer) Chunks() (Stream, error) {
	return &bufferStream{data: b.data, size: b.cfg.ChunkSize}, nil
}

type bufferStream struct {
	data []byte
	size int
	pos  int
}

func (s *bufferStream) Next() ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	end := s.pos + s.size
	if end > len(s.data) {
		end = len(s.data)
	}
	chunk := make([]byte, end-s.pos)
	copy(chunk, s.data[s.pos:end])
	s.pos = end
	return chunk, nil
}
