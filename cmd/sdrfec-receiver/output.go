package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sdrfec/sdrfec/internal/iq"
)

// sampleWriter writes superframe samples in the selected format.
type sampleWriter struct {
	w      *bufio.Writer
	closer io.Closer
	cf32   bool
	buf    []byte
}

func openOutput(path, format string) (*sampleWriter, error) {
	var cf32 bool
	switch format {
	case "s16", "":
	case "cf32":
		cf32 = true
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	var (
		w      io.Writer
		closer io.Closer
	)
	switch path {
	case "":
		w = io.Discard
	case "-":
		w = os.Stdout
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}
	return &sampleWriter{w: bufio.NewWriterSize(w, 1<<20), closer: closer, cf32: cf32}, nil
}

func (s *sampleWriter) Write(samples []byte) error {
	if !s.cf32 {
		_, err := s.w.Write(samples)
		return err
	}
	var err error
	s.buf, err = iq.AppendCF32(s.buf[:0], samples)
	if err != nil {
		return err
	}
	_, err = s.w.Write(s.buf)
	return err
}

func (s *sampleWriter) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
