package sdrfec

import "errors"

// Every error returned by WriteAndRead is local to the offending datagram or
// superframe; the Buffer always accepts the next datagram.
var (
	ErrMalformed   = errors.New("sdrfec: datagram has wrong size")
	ErrBlockIndex  = errors.New("sdrfec: block index out of range")
	ErrStale       = errors.New("sdrfec: datagram for an evicted superframe")
	ErrDuplicate   = errors.New("sdrfec: duplicate block")
	ErrLate        = errors.New("sdrfec: block for an already finished superframe")
	ErrUnsolvable  = errors.New("sdrfec: erasure decode failed, superframe dropped")
	ErrShortBuffer = errors.New("sdrfec: output buffer smaller than a superframe")
)
