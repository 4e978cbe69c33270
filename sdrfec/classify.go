package sdrfec

import "github.com/sdrfec/sdrfec/internal/fecwire"

// classify splits a datagram into its header and protected block. The
// returned payload aliases datagram.
func classify(datagram []byte) (fecwire.Header, []byte, error) {
	var h fecwire.Header
	if len(datagram) != fecwire.DatagramSize || !h.UnmarshalBinary(datagram) {
		return h, nil, ErrMalformed
	}
	return h, datagram[fecwire.HeaderLen:], nil
}
