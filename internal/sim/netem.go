package sim

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// NetScenario is the egress impairment Netem installs on a device.
type NetScenario struct {
	Dev           string
	DelayMs       float32
	JitterMs      float32
	BandwidthMbps float32 // 0 leaves the rate unlimited
	LossRate      float32
	ReorderRate   float32
	DuplicateRate float32
}

// Runner executes one external command.
type Runner func(ctx context.Context, name string, args ...string) error

// Netem applies Linux tc netem (and htb for rate limits) rules to the
// egress of a device. It needs CAP_NET_ADMIN.
type Netem struct {
	dev string
	run Runner
}

// NewNetem returns a Netem using run, or os/exec when run is nil.
func NewNetem(run Runner) *Netem {
	if run == nil {
		run = execRunner
	}
	return &Netem{run: run}
}

func (m *Netem) Apply(ctx context.Context, net *NetScenario) error {
	if net == nil {
		return nil
	}
	if net.Dev == "" {
		return fmt.Errorf("netem: device not set")
	}
	m.dev = net.Dev
	// Always reset root qdisc to avoid tc 'change not supported' issues
	_ = m.tc(ctx, "qdisc", "del", "dev", m.dev, "root")
	if net.BandwidthMbps <= 0 {
		return m.tc(ctx, netemArgs(m.dev, []string{"root", "handle", "10:"}, net)...)
	}
	if err := m.tc(ctx, "qdisc", "add", "dev", m.dev, "root", "handle", "1:", "htb", "default", "1"); err != nil {
		return err
	}
	rate := fmt.Sprintf("%.0fmbit", net.BandwidthMbps)
	if err := m.tc(ctx, "class", "replace", "dev", m.dev, "parent", "1:", "classid", "1:1", "htb", "rate", rate, "ceil", rate); err != nil {
		return err
	}
	return m.tc(ctx, netemArgs(m.dev, []string{"parent", "1:1", "handle", "100:"}, net)...)
}

// Cleanup removes whatever Apply installed.
func (m *Netem) Cleanup(ctx context.Context) error {
	if m.dev == "" {
		return nil
	}
	return m.tc(ctx, "qdisc", "del", "dev", m.dev, "root")
}

func (m *Netem) tc(ctx context.Context, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return m.run(ctx, "tc", args...)
}

func netemArgs(dev string, where []string, net *NetScenario) []string {
	args := append([]string{"qdisc", "add", "dev", dev}, where...)
	args = append(args, "netem",
		"delay", fmt.Sprintf("%.2fms", net.DelayMs), fmt.Sprintf("%.2fms", net.JitterMs),
		"loss", fmt.Sprintf("%.3f%%", net.LossRate*100.0))
	if net.ReorderRate > 0 {
		args = append(args, "reorder", fmt.Sprintf("%.2f%%", net.ReorderRate*100.0), "gap", "5")
	}
	if net.DuplicateRate > 0 {
		args = append(args, "duplicate", fmt.Sprintf("%.2f%%", net.DuplicateRate*100.0))
	}
	return args
}

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w\n%s", name, args, err, out)
	}
	return nil
}
