package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/sdrfec/sdrfec/fec"
)

type jsonRecord struct {
	resultKey
	*agg
}

func (r jsonRecord) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("scheme", r.Scheme.String())
	enc.IntKey("K", r.K)
	enc.IntKey("M", r.M)
	enc.Float64Key("loss", r.Loss)
	enc.IntKey("frames", r.Frames)
	enc.IntKey("emitted", r.Emitted)
	enc.Uint64Key("decodes", r.Decodes)
	enc.Uint64Key("unsolvable", r.Unsolvable)
	enc.Uint64Key("abandoned", r.Abandoned)
	enc.Int64Key("enc_ms_total", r.EncTotal.Milliseconds())
	enc.Int64Key("dec_ms_total", r.DecTotal.Milliseconds())
}

func (r jsonRecord) IsNil() bool { return r.agg == nil }

type jsonRecords []jsonRecord

func (rs jsonRecords) MarshalJSONArray(enc *gojay.Encoder) {
	for _, r := range rs {
		enc.Object(r)
	}
}

func (rs jsonRecords) IsNil() bool { return len(rs) == 0 }

type jsonReport struct {
	generated time.Time
	records   jsonRecords
}

func (r *jsonReport) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("generated", r.generated.Format(time.RFC3339))
	enc.ArrayKey("records", r.records)
}

func (r *jsonReport) IsNil() bool { return r == nil }

func sortedKeys(res allResults) []resultKey {
	keys := make([]resultKey, 0, len(res))
	for k := range res {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.K != b.K {
			return a.K > b.K
		}
		if a.M != b.M {
			return a.M < b.M
		}
		if a.Scheme != b.Scheme {
			return a.Scheme < b.Scheme
		}
		return a.Loss < b.Loss
	})
	return keys
}

func writeJSON(path string, res allResults) error {
	rep := &jsonReport{generated: time.Now()}
	for _, k := range sortedKeys(res) {
		rep.records = append(rep.records, jsonRecord{resultKey: k, agg: res[k]})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := gojay.NewEncoder(f)
	if err := enc.EncodeObject(rep); err != nil {
		return err
	}
	return f.Close()
}

func writeMarkdown(path string, res allResults, burst float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var cfgs []config
	var schemes []fec.Scheme
	var losses []float64
	seenCfg := map[config]bool{}
	seenScheme := map[fec.Scheme]bool{}
	seenLoss := map[float64]bool{}
	for _, k := range sortedKeys(res) {
		c := config{K: k.K, M: k.M}
		if !seenCfg[c] {
			seenCfg[c] = true
			cfgs = append(cfgs, c)
		}
		if !seenScheme[k.Scheme] {
			seenScheme[k.Scheme] = true
			schemes = append(schemes, k.Scheme)
		}
		if !seenLoss[k.Loss] {
			seenLoss[k.Loss] = true
			losses = append(losses, k.Loss)
		}
	}
	sort.Float64s(losses)

	fmt.Fprintf(f, "# Superframe Recovery Report\n\n")
	fmt.Fprintf(f, "Generated: %s, mean burst %.1f datagrams\n\n", time.Now().Format(time.RFC3339), burst)
	for _, c := range cfgs {
		fmt.Fprintf(f, "## (K=%d, M=%d)\n\n", c.K, c.M)
		fmt.Fprintf(f, "### Superframes Emitted (%%)\n\n")
		fmt.Fprintf(f, "| Scheme | %s |\n", joinLossHeaders(losses))
		div := make([]string, len(losses)+1)
		for i := range div {
			div[i] = "---:"
		}
		div[0] = "---"
		fmt.Fprintf(f, "|%s|\n", strings.Join(div, "|"))
		for _, s := range schemes {
			fmt.Fprintf(f, "| %s ", strings.ToUpper(s.String()))
			for _, l := range losses {
				a := res[resultKey{Scheme: s, K: c.K, M: c.M, Loss: l}]
				if a == nil || a.Frames == 0 {
					fmt.Fprintf(f, "|  ")
					continue
				}
				fmt.Fprintf(f, "| %.2f ", 100*float64(a.Emitted)/float64(a.Frames))
			}
			fmt.Fprintf(f, "|\n")
		}
		fmt.Fprintf(f, "\n### Encode / Buffer Time (ms)\n\n")
		fmt.Fprintf(f, "| Scheme | Encode | Buffer | Decodes | Unsolvable |\n")
		fmt.Fprintf(f, "|---|---:|---:|---:|---:|\n")
		for _, s := range schemes {
			var enc, dec time.Duration
			var decodes, unsolvable uint64
			for _, l := range losses {
				if a := res[resultKey{Scheme: s, K: c.K, M: c.M, Loss: l}]; a != nil {
					enc += a.EncTotal
					dec += a.DecTotal
					decodes += a.Decodes
					unsolvable += a.Unsolvable
				}
			}
			fmt.Fprintf(f, "| %s | %d | %d | %d | %d |\n", strings.ToUpper(s.String()),
				enc.Milliseconds(), dec.Milliseconds(), decodes, unsolvable)
		}
		fmt.Fprintf(f, "\n")
	}
	return f.Close()
}

func joinLossHeaders(losses []float64) string {
	hs := make([]string, len(losses))
	for i, l := range losses {
		hs[i] = fmt.Sprintf("p=%.3f", l)
	}
	return strings.Join(hs, " | ")
}
