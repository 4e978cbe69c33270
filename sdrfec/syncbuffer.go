package sdrfec

import "sync"

// SyncBuffer serialises access to a Buffer.
type SyncBuffer struct {
	mu  sync.Mutex
	buf *Buffer
}

func NewSyncBuffer(opts Options) (*SyncBuffer, error) {
	b, err := NewBuffer(opts)
	if err != nil {
		return nil, err
	}
	return &SyncBuffer{buf: b}, nil
}

func (s *SyncBuffer) WriteAndRead(datagram, out []byte) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.WriteAndRead(datagram, out)
}

func (s *SyncBuffer) CurrentMeta() (MetaData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.CurrentMeta()
}

func (s *SyncBuffer) FrameBytes() int { return s.buf.FrameBytes() }

func (s *SyncBuffer) Stats() Stats { return s.buf.Stats() }
