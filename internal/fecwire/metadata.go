package fecwire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// MetaLen is the size of the metadata record heading block zero.
//
//	offset 0  u32 CenterFrequency  kHz
//	offset 4  u32 SampleRate       Hz
//	offset 8  u8  SampleBytes      high nibble indicators, low nibble bytes per sample
//	offset 9  u8  SampleBits       effective bits per sample
//	offset 10 u8  NbOriginalBlocks K
//	offset 11 u8  NbFECBlocks      M
//	offset 12 u32 TvSec            superframe start, seconds
//	offset 16 u32 TvUsec           superframe start, microseconds
const MetaLen = 20

var errShortMeta = errors.New("short metadata record")

// MetaData describes how to interpret the sample stream of a superframe.
type MetaData struct {
	CenterFrequency  uint32
	SampleRate       uint32
	SampleBytes      uint8
	SampleBits       uint8
	NbOriginalBlocks uint8
	NbFECBlocks      uint8
	TvSec            uint32
	TvUsec           uint32
}

func (m *MetaData) MarshalBinary(b []byte) []byte {
	if len(b) < MetaLen {
		b = make([]byte, MetaLen)
	}
	binary.LittleEndian.PutUint32(b[0:4], m.CenterFrequency)
	binary.LittleEndian.PutUint32(b[4:8], m.SampleRate)
	b[8] = m.SampleBytes
	b[9] = m.SampleBits
	b[10] = m.NbOriginalBlocks
	b[11] = m.NbFECBlocks
	binary.LittleEndian.PutUint32(b[12:16], m.TvSec)
	binary.LittleEndian.PutUint32(b[16:20], m.TvUsec)
	return b[:MetaLen]
}

func (m *MetaData) UnmarshalBinary(b []byte) error {
	if len(b) < MetaLen {
		return errShortMeta
	}
	m.CenterFrequency = binary.LittleEndian.Uint32(b[0:4])
	m.SampleRate = binary.LittleEndian.Uint32(b[4:8])
	m.SampleBytes = b[8]
	m.SampleBits = b[9]
	m.NbOriginalBlocks = b[10]
	m.NbFECBlocks = b[11]
	m.TvSec = binary.LittleEndian.Uint32(b[12:16])
	m.TvUsec = binary.LittleEndian.Uint32(b[16:20])
	return nil
}

// Equal compares the stream configuration only; the timestamp differs on
// every superframe and is ignored.
func (m MetaData) Equal(o MetaData) bool {
	return m.CenterFrequency == o.CenterFrequency &&
		m.SampleRate == o.SampleRate &&
		m.SampleBytes == o.SampleBytes &&
		m.SampleBits == o.SampleBits &&
		m.NbOriginalBlocks == o.NbOriginalBlocks &&
		m.NbFECBlocks == o.NbFECBlocks
}

// BytesPerSample is the byte width of one I or Q component.
func (m MetaData) BytesPerSample() int { return int(m.SampleBytes & 0x0f) }

// Indicators returns the flag nibble of SampleBytes.
func (m MetaData) Indicators() uint8 { return m.SampleBytes >> 4 }

// Timestamp returns the superframe start time.
func (m MetaData) Timestamp() time.Time {
	return time.Unix(int64(m.TvSec), int64(m.TvUsec)*int64(time.Microsecond))
}

// SetTimestamp stores t with microsecond resolution.
func (m *MetaData) SetTimestamp(t time.Time) {
	m.TvSec = uint32(t.Unix())
	m.TvUsec = uint32(t.Nanosecond() / int(time.Microsecond))
}

// Check reports inconsistencies between the record and a receiver expecting
// k original blocks. It never affects decoding.
func (m MetaData) Check(k int) error {
	if int(m.NbOriginalBlocks) != k {
		return fmt.Errorf("metadata announces %d original blocks, receiver uses %d", m.NbOriginalBlocks, k)
	}
	if int(m.NbOriginalBlocks)+int(m.NbFECBlocks) > 256 {
		return fmt.Errorf("metadata announces %d+%d blocks", m.NbOriginalBlocks, m.NbFECBlocks)
	}
	if b := m.BytesPerSample(); b > 2 {
		return fmt.Errorf("metadata announces %d bytes per sample", b)
	}
	if m.SampleBits > 16 {
		return fmt.Errorf("metadata announces %d bits per sample", m.SampleBits)
	}
	return nil
}

func (m MetaData) String() string {
	return fmt.Sprintf("freq=%dkHz rate=%dHz bytes=%d bits=%d K=%d M=%d",
		m.CenterFrequency, m.SampleRate, m.BytesPerSample(), m.SampleBits, m.NbOriginalBlocks, m.NbFECBlocks)
}
