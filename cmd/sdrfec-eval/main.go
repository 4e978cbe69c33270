// Command sdrfec-eval measures how many superframes survive a simulated
// lossy channel for each erasure scheme, block shape and loss rate, and
// writes a markdown report with a JSON companion.
package main

import (
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sdrfec/sdrfec/sdrfec"
	"github.com/sdrfec/sdrfec/fec"
	"github.com/sdrfec/sdrfec/internal/dropper"
	"github.com/sdrfec/sdrfec/internal/logging"
	"github.com/sdrfec/sdrfec/internal/sim"
)

type config struct {
	K int
	M int
}

type resultKey struct {
	Scheme fec.Scheme
	K      int
	M      int
	Loss   float64
}

type agg struct {
	Frames     int
	Emitted    int
	Decodes    uint64
	Unsolvable uint64
	Abandoned  uint64
	EncTotal   time.Duration
	DecTotal   time.Duration
}

type allResults map[resultKey]*agg

func parseConfigs(s string) ([]config, error) {
	parts := strings.Split(s, ";")
	out := make([]config, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var a, b int
		if _, err := fmt.Sscanf(p, "%d,%d", &a, &b); err != nil {
			return nil, fmt.Errorf("bad config %q: %w", p, err)
		}
		if a <= 0 || b <= 0 || a+b > fec.MaxShards {
			return nil, fmt.Errorf("invalid config K=%d M=%d", a, b)
		}
		out = append(out, config{K: a, M: b})
	}
	return out, nil
}

func parseLosses(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var f float64
		if _, err := fmt.Sscanf(p, "%f", &f); err != nil {
			return nil, fmt.Errorf("bad loss %q: %w", p, err)
		}
		if f < 0 || f >= 1 {
			return nil, fmt.Errorf("invalid loss %.4f", f)
		}
		out = append(out, f)
	}
	return out, nil
}

func parseSchemes(s string) ([]fec.Scheme, error) {
	if s == "all" {
		return []fec.Scheme{fec.SchemeCauchy, fec.SchemeGF256, fec.SchemeRaptorQ}, nil
	}
	var out []fec.Scheme
	for _, p := range strings.Split(s, ",") {
		sc, err := fec.ParseScheme(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func main() {
	var (
		frames  = flag.Int("frames", 200, "superframes per (scheme,config,loss)")
		cfgStr  = flag.String("configs", "128,4;128,8;128,16;64,16", "semicolon-separated list of K,M pairs")
		lossStr = flag.String("loss", "0.005,0.01,0.03,0.05", "comma-separated list of loss probabilities")
		burst   = flag.Float64("burst", 1, "mean loss burst length in datagrams, 1 for independent losses")
		reorder = flag.Float64("reorder", 0, "reorder probability")
		slots   = flag.Int("slots", sdrfec.DefaultDecoderSlots, "receiver decoder slots")
		outPath = flag.String("out", "docs/reports/sdrfec_eval_report.md", "output markdown report path")
		seed    = flag.Int64("seed", 42, "random seed")
		which   = flag.String("scheme", "all", "schemes to run: cauchy,gf256,raptorq or all")
	)
	flag.Parse()

	cfgs, err := parseConfigs(*cfgStr)
	if err != nil {
		fatalf("%v", err)
	}
	losses, err := parseLosses(*lossStr)
	if err != nil {
		fatalf("%v", err)
	}
	schemes, err := parseSchemes(*which)
	if err != nil {
		fatalf("%v", err)
	}

	rng := mrand.New(mrand.NewSource(*seed))
	results := make(allResults)
	for _, cfg := range cfgs {
		for _, loss := range losses {
			for _, sc := range schemes {
				key := resultKey{Scheme: sc, K: cfg.K, M: cfg.M, Loss: loss}
				a, err := evaluate(key, *frames, *burst, *reorder, *slots, rng)
				if err != nil {
					fatalf("%v K=%d M=%d loss=%.3f: %v", sc, cfg.K, cfg.M, loss, err)
				}
				results[key] = a
				fmt.Printf("%-8v K=%-3d M=%-3d loss=%.3f emitted=%d/%d\n", sc, cfg.K, cfg.M, loss, a.Emitted, a.Frames)
			}
		}
	}

	ts := time.Now().Format("20060102_150405")
	mdPath := *outPath
	if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
		fatalf("%v", err)
	}
	jsonPath := strings.TrimSuffix(mdPath, ".md") + "_" + ts + ".json"
	if err := writeJSON(jsonPath, results); err != nil {
		fatalf("write json: %v", err)
	}
	if err := writeMarkdown(mdPath, results, *burst); err != nil {
		fatalf("write md: %v", err)
	}
	fmt.Printf("Report written: %s\nJSON: %s\n", mdPath, jsonPath)
}

// evaluate sends frames superframes through a simulated channel into a
// fresh Buffer.
func evaluate(key resultKey, frames int, burst, reorder float64, slots int, rng *mrand.Rand) (*agg, error) {
	fr, err := sdrfec.NewFramer(key.K, key.M, key.Scheme)
	if err != nil {
		return nil, err
	}
	buf, err := sdrfec.NewBuffer(sdrfec.Options{
		OriginalBlocks: key.K,
		FECBlocks:      key.M,
		DecoderSlots:   slots,
		Scheme:         key.Scheme,
		Logger:         logging.Nop(),
	})
	if err != nil {
		return nil, err
	}
	var loss dropper.Decider = dropper.New(key.Loss, rng)
	if burst > 1 {
		loss = dropper.NewBurst(key.Loss, burst, rng)
	}
	ch := sim.NewChannel(sim.ChannelConfig{Loss: loss, Reorder: reorder}, rng)

	a := &agg{Frames: frames}
	samples := make([]byte, fr.FrameBytes())
	out := make([]byte, buf.FrameBytes())
	deliver := func(d []byte) {
		t0 := time.Now()
		res, err := buf.WriteAndRead(d, out)
		a.DecTotal += time.Since(t0)
		if err == nil && res.Ready {
			a.Emitted++
		}
	}
	var meta sdrfec.MetaData
	for i := 0; i < frames; i++ {
		rng.Read(samples)
		t0 := time.Now()
		dgrams, err := fr.Frame(meta, samples)
		a.EncTotal += time.Since(t0)
		if err != nil {
			return nil, err
		}
		for _, d := range dgrams {
			ch.Send(d, deliver)
		}
	}
	ch.Flush(deliver)
	st := buf.Stats()
	a.Decodes, a.Unsolvable, a.Abandoned = st.Decodes, st.Unsolvable, st.Abandoned
	return a, nil
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}
