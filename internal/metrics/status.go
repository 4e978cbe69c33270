package metrics

import (
	"net/http"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/sdrfec/sdrfec/sdrfec"
)

type statsJSON sdrfec.Stats

func (s *statsJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.Uint64Key("datagrams", s.Datagrams)
	enc.Uint64Key("malformed", s.Malformed)
	enc.Uint64Key("bad_block_index", s.BadIndex)
	enc.Uint64Key("stale", s.Stale)
	enc.Uint64Key("duplicates", s.Duplicates)
	enc.Uint64Key("late", s.Late)
	enc.Uint64Key("short_buffer", s.ShortBuffer)
	enc.Uint64Key("rebinds", s.Rebinds)
	enc.Uint64Key("abandoned", s.Abandoned)
	enc.Uint64Key("frames", s.Frames)
	enc.Uint64Key("decodes", s.Decodes)
	enc.Uint64Key("recovered_blocks", s.Recovered)
	enc.Uint64Key("unsolvable", s.Unsolvable)
	enc.Uint64Key("meta_changes", s.MetaChanges)
	enc.Uint64Key("ingress_drops", s.IngressDrops)
	enc.Uint64Key("read_errors", s.ReadErrors)
}

func (s *statsJSON) IsNil() bool { return s == nil }

type metaJSON sdrfec.MetaData

func (m *metaJSON) MarshalJSONObject(enc *gojay.Encoder) {
	md := (*sdrfec.MetaData)(m)
	enc.Uint64Key("center_frequency_khz", uint64(m.CenterFrequency))
	enc.Uint64Key("sample_rate", uint64(m.SampleRate))
	enc.IntKey("bytes_per_sample", md.BytesPerSample())
	enc.IntKey("indicators", int(md.Indicators()))
	enc.IntKey("sample_bits", int(m.SampleBits))
	enc.IntKey("original_blocks", int(m.NbOriginalBlocks))
	enc.IntKey("fec_blocks", int(m.NbFECBlocks))
	enc.StringKey("timestamp", md.Timestamp().UTC().Format(time.RFC3339Nano))
}

func (m *metaJSON) IsNil() bool { return m == nil }

type statusJSON struct {
	stats sdrfec.Stats
	meta  *sdrfec.MetaData
}

func (s *statusJSON) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ObjectKey("stats", (*statsJSON)(&s.stats))
	if s.meta != nil {
		enc.ObjectKey("meta", (*metaJSON)(s.meta))
	}
}

func (s *statusJSON) IsNil() bool { return s == nil }

// StatusHandler serves the counters of src, and its latest metadata when
// src is also a MetaSource, as a JSON object.
func StatusHandler(src StatsSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc := &statusJSON{stats: src.Stats()}
		if ms, ok := src.(MetaSource); ok {
			if meta, valid := ms.CurrentMeta(); valid {
				doc.meta = &meta
			}
		}
		w.Header().Set("Content-Type", "application/json")
		enc := gojay.BorrowEncoder(w)
		defer enc.Release()
		if err := enc.EncodeObject(doc); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
