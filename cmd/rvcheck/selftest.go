package main

import (
	"github.com/spf13/cobra"

	"rvcheck/platform"
	"rvcheck/report"
	"rvcheck/selftest"
	"rvcheck/sim"
)

func (a *app) selftestCmd() *cobra.Command {
	var kind, drain string
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the MD5 self-test and print the verdict",
		Long: `Hash the built-in string, compare it with the expected digest and print
"Check MD5 sum SUCCESS" or "Check MD5 sum FAILURE: <index>". The exit status
is the verdict: 0 on success, otherwise the 1-based index of the first
mismatching digest byte.

With --platform mmio the verdict is stored byte by byte into UART0 txdata of
an emulated FE310 and appears prefixed with "[UART0] ".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("platform") {
				a.cfg.Platform = kind
			}
			if cmd.Flags().Changed("drain") {
				a.cfg.Drain = drain
			}
			k, err := platform.ParseKind(a.cfg.Platform)
			if err != nil {
				return usageError{err}
			}
			d, err := report.ParseDrain(a.cfg.Drain)
			if err != nil {
				return usageError{err}
			}

			var bus platform.Bus
			var m *sim.Machine
			if k == platform.KindMMIO {
				if m, err = sim.NewMachine(a.cfg.Layout(), a.stdout, a.log); err != nil {
					return err
				}
				bus = m.Bus
			}
			sink, err := platform.New(k, bus, a.stdout)
			if err != nil {
				return err
			}
			a.log.Info("self-test start", map[string]any{"platform": k.String(), "drain": d.String()})

			a.exit = selftest.New(report.New(sink, report.WithDrain(d)), a.log).Run()
			if m != nil {
				m.UART.Flush()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "platform", platform.DefaultKind.String(), "Byte sink: host or mmio")
	cmd.Flags().StringVar(&drain, "drain", report.DrainTrust.String(), "Overflow policy: trust or clamp")
	return cmd
}
