// Package stats prints the summary shown after a firmware run.
package stats

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

type Run struct {
	ExitCode     int32
	Exited       bool
	Instructions uint64
	Elapsed      time.Duration
	HostCPU      string
	RSSBytes     uint64
}

// IPS is instructions per second, 0 when no time was measured.
func (r Run) IPS() float64 {
	secs := r.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(r.Instructions) / secs
}

// Probe fills the host fields. Failures leave them empty.
func (r *Run) Probe() {
	r.HostCPU = HostCPU()
	r.RSSBytes = ResidentBytes()
}

// HostCPU returns the model name of the first host CPU.
func HostCPU() string {
	infos, err := cpu.Info()
	if err != nil || len(infos) == 0 {
		return ""
	}
	return strings.TrimSpace(infos[0].ModelName)
}

// ResidentBytes is the resident set size of this process.
func ResidentBytes() uint64 {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mi, err := p.MemoryInfo()
	if err != nil || mi == nil {
		return 0
	}
	return mi.RSS
}

func (r Run) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if r.Exited {
		fmt.Fprintf(&b, "Target application exit code: %d\n", r.ExitCode)
	} else {
		b.WriteString("Target application did not exit\n")
	}
	ips := r.IPS()
	b.WriteString("Simulation statistics:\n")
	fmt.Fprintf(&b, "\tInstructions: %d in %s\n", r.Instructions, r.Elapsed.Round(time.Microsecond))
	fmt.Fprintf(&b, "\tIPS(Instructions Per Second): %.2f KIPS, %.2f MIPS\n", ips/1e3, ips/1e6)
	fmt.Fprintf(&b, "\tHost CPU: %s\n", orUnknown(r.HostCPU))
	if r.RSSBytes > 0 {
		fmt.Fprintf(&b, "\tHost RSS: %.1f MiB\n", float64(r.RSSBytes)/(1<<20))
	} else {
		b.WriteString("\tHost RSS: unknown\n")
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
