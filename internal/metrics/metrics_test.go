package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrfec/sdrfec/sdrfec"
)

type fakeSource struct {
	stats     sdrfec.Stats
	meta      sdrfec.MetaData
	metaValid bool
}

func (f *fakeSource) Stats() sdrfec.Stats { return f.stats }

func (f *fakeSource) CurrentMeta() (sdrfec.MetaData, bool) { return f.meta, f.metaValid }

type statsOnly struct{ stats sdrfec.Stats }

func (s statsOnly) Stats() sdrfec.Stats { return s.stats }

func TestCollector(t *testing.T) {
	src := &fakeSource{stats: sdrfec.Stats{Frames: 12, Recovered: 30, Unsolvable: 1}}
	c := NewCollector("sdrfec", src)

	assert.Equal(t, 14, testutil.CollectAndCount(c))
	src.meta = sdrfec.MetaData{CenterFrequency: 435000, SampleRate: 48000}
	src.metaValid = true
	assert.Equal(t, 16, testutil.CollectAndCount(c))

	expected := `
# HELP sdrfec_frames_total Superframes emitted.
# TYPE sdrfec_frames_total counter
sdrfec_frames_total 12
# HELP sdrfec_recovered_blocks_total Data blocks rebuilt by the erasure decoder.
# TYPE sdrfec_recovered_blocks_total counter
sdrfec_recovered_blocks_total 30
# HELP sdrfec_center_frequency_hz Center frequency announced by the sender.
# TYPE sdrfec_center_frequency_hz gauge
sdrfec_center_frequency_hz 4.35e+08
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"sdrfec_frames_total", "sdrfec_recovered_blocks_total", "sdrfec_center_frequency_hz"))

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
}

func TestCollectorWithoutMeta(t *testing.T) {
	c := NewCollector("rx", statsOnly{sdrfec.Stats{Datagrams: 5}})
	assert.Equal(t, 14, testutil.CollectAndCount(c))
}

func TestStatusHandler(t *testing.T) {
	src := &fakeSource{
		stats:     sdrfec.Stats{Datagrams: 99, Frames: 3},
		meta:      sdrfec.MetaData{CenterFrequency: 145800, SampleRate: 96000, SampleBytes: 0x12, SampleBits: 12, NbOriginalBlocks: 128, NbFECBlocks: 8},
		metaValid: true,
	}
	rec := httptest.NewRecorder()
	StatusHandler(src).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc struct {
		Stats map[string]uint64 `json:"stats"`
		Meta  map[string]any    `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.EqualValues(t, 99, doc.Stats["datagrams"])
	assert.EqualValues(t, 3, doc.Stats["frames"])
	assert.EqualValues(t, 145800, doc.Meta["center_frequency_khz"])
	assert.EqualValues(t, 2, doc.Meta["bytes_per_sample"])
	assert.EqualValues(t, 1, doc.Meta["indicators"])
	assert.EqualValues(t, 8, doc.Meta["fec_blocks"])

	src.metaValid = false
	rec = httptest.NewRecorder()
	StatusHandler(src).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.NotContains(t, rec.Body.String(), `"meta":`)
}
