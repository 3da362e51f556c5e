package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"rvcheck/internal/stats"
	"rvcheck/sim"
)

func (a *app) runCmd() *cobra.Command {
	var (
		entry     string
		steps     uint64
		traceFile string
		noStats   bool
	)
	cmd := &cobra.Command{
		Use:   "run <elf|bin>",
		Short: "Run RV32 firmware on the emulated FE310",
		Long: `Load an ELF or flat binary into the emulated FE310 and run it until the
firmware exits through ecall (a7 = 93). Flat binaries are placed at the start
of flash and need --entry unless they start there. The exit status is the
firmware's exit code when it fits in 0..255 and is not one of the tool's own
codes (64, 70, 71, 72); any other firmware exit code becomes 71.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("steps") {
				a.cfg.MaxSteps = steps
			}
			if cmd.Flags().Changed("trace") {
				a.cfg.TraceFile = traceFile
			}
			var pc uint32
			if entry != "" {
				v, err := strconv.ParseUint(entry, 0, 32)
				if err != nil {
					return usageError{fmt.Errorf("bad --entry %q: %w", entry, err)}
				}
				pc = uint32(v)
			}

			m, err := sim.NewMachine(a.cfg.Layout(), a.stdout, a.log)
			if err != nil {
				return err
			}
			if err := m.Load(args[0], pc); err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if a.cfg.TraceFile != "" {
				f, err := os.Create(a.cfg.TraceFile)
				if err != nil {
					return fmt.Errorf("trace file: %w", err)
				}
				defer f.Close()
				m.CPU.Trace = f
			}

			res := m.Run(a.cfg.MaxSteps)
			switch {
			case res.Exited:
				a.exit = firmwareStatus(res.ExitCode)
				if a.exit != int(res.ExitCode) {
					a.log.Warn("firmware exit code not representable", map[string]any{"code": res.ExitCode, "status": a.exit})
				}
			case res.Fault != nil:
				a.exit = exitFault
			default:
				a.exit = exitSteps
			}

			if noStats {
				return nil
			}
			st := stats.Run{
				ExitCode:     res.ExitCode,
				Exited:       res.Exited,
				Instructions: res.Retired,
				Elapsed:      res.Elapsed,
			}
			st.Probe()
			_, err = st.WriteTo(a.stdout)
			return err
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "Entry point for flat binaries (e.g. 0x80000000)")
	cmd.Flags().Uint64Var(&steps, "steps", 0, "Instruction limit, 0 for none (or RVCHECK_MAX_STEPS)")
	cmd.Flags().StringVar(&traceFile, "trace", "", "Write one line per executed instruction to this file")
	cmd.Flags().BoolVar(&noStats, "no-stats", false, "Skip the statistics block")
	return cmd
}

// firmwareStatus maps a firmware exit code onto a process status that cannot
// be mistaken for success or for one of the tool's own codes.
func firmwareStatus(code int32) int {
	switch {
	case code < 0 || code > 255:
		return exitFault
	case code == exitUsage, code >= exitSetup && code <= exitSteps:
		return exitFault
	}
	return int(code)
}
