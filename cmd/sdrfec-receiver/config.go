package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// config holds every receiver setting. Field names double as TOML keys.
type config struct {
	Listen         string
	MulticastGroup string
	Interface      string
	ReadBuffer     int

	OriginalBlocks int
	FECBlocks      int
	DecoderSlots   int
	IngressRing    int
	Scheme         string

	Output      string
	Format      string
	MetricsAddr string
	StatsEvery  string

	LogLevel  string
	LogFormat string
}

func defaultConfig() config {
	return config{
		Listen:         ":9094",
		ReadBuffer:     4 << 20,
		OriginalBlocks: 128,
		DecoderSlots:   4,
		IngressRing:    1024,
		Scheme:         "cauchy",
		Output:         "-",
		Format:         "s16",
		StatsEvery:     "10s",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func loadConfig(file string, cfg *config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// parseConfig reads flags and, when -config names a file, the file. Flags
// given explicitly override the file. dump reports -dumpconfig.
func parseConfig(args []string) (cfg config, dump bool, err error) {
	cfg = defaultConfig()
	fs := flag.NewFlagSet("sdrfec-receiver", flag.ContinueOnError)
	var (
		file     = fs.String("config", "", "TOML config file (optional)")
		dumpFlag = fs.Bool("dumpconfig", false, "print the effective configuration as TOML and exit")
	)
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "UDP listen address")
	fs.StringVar(&cfg.MulticastGroup, "group", cfg.MulticastGroup, "IPv4 multicast group to join (optional)")
	fs.StringVar(&cfg.Interface, "iface", cfg.Interface, "interface for the multicast join (optional)")
	fs.IntVar(&cfg.ReadBuffer, "rcvbuf", cfg.ReadBuffer, "socket receive buffer in bytes, 0 keeps the OS default")
	fs.IntVar(&cfg.OriginalBlocks, "k", cfg.OriginalBlocks, "original blocks per superframe")
	fs.IntVar(&cfg.FECBlocks, "m", cfg.FECBlocks, "maximum recovery blocks per superframe (0 = min(k, 256-k))")
	fs.IntVar(&cfg.DecoderSlots, "slots", cfg.DecoderSlots, "decoder slots (power of two)")
	fs.IntVar(&cfg.IngressRing, "ingress-ring", cfg.IngressRing, "datagrams queued between socket and decoder")
	fs.StringVar(&cfg.Scheme, "scheme", cfg.Scheme, "erasure code: cauchy, gf256 or raptorq")
	fs.StringVar(&cfg.Output, "out", cfg.Output, "sample output file, - for stdout, empty to discard")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "sample output format: s16 or cf32")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP address for /metrics and /status (optional)")
	fs.StringVar(&cfg.StatsEvery, "stats-every", cfg.StatsEvery, "period of the statistics log line, 0 disables")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if *file != "" {
		set := make(map[string]string)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = f.Value.String() })
		if err := loadConfig(*file, &cfg); err != nil {
			return cfg, false, err
		}
		for name, value := range set {
			if err := fs.Set(name, value); err != nil {
				return cfg, false, err
			}
		}
	}
	return cfg, *dumpFlag, nil
}
