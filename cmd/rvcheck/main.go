package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"rvcheck/internal/config"
	"rvcheck/internal/logger"
)

// Exit codes of the tool itself. The self-test verdict (0..16) and a
// firmware's own exit code are passed through unchanged.
const (
	exitOK    = 0
	exitUsage = 64
	exitSetup = 70
	exitFault = 71
	exitSteps = 72
)

type app struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string
	jsonLogs   bool
	noANSI     bool

	cfg  *config.Config
	log  *logger.Logger
	exit int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		// no config means cobra rejected the command line before setup
		var ue usageError
		if a.cfg == nil || errors.As(err, &ue) {
			return exitUsage
		}
		return exitSetup
	}
	return a.exit
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rvcheck",
		Short: "MD5 boot self-test and FE310 firmware runner",
		Long: `rvcheck hashes a fixed string with MD5, compares it with the digest the
image was built with and prints one verdict line through the serial port.

The run command loads RV32 firmware into an emulated FE310 SoC and runs it
until it exits.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "", "error, warn, info, debug or trace (or RVCHECK_LOG_LEVEL)")
	pf.BoolVar(&a.jsonLogs, "json", false, "JSON logs")
	pf.BoolVar(&a.noANSI, "no-ansi", false, "Disable coloured log tags")

	root.AddCommand(a.selftestCmd(), a.runCmd())
	return root
}

// setup loads the config file, then the environment, then flags.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadYAML(a.configPath)
	if err != nil {
		return usageError{fmt.Errorf("load config: %w", err)}
	}
	cfg = config.MergeEnv(cfg)
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("json") {
		cfg.JSON = a.jsonLogs
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	level, _ := logger.ParseLevel(cfg.LogLevel)
	a.cfg = cfg
	a.log = logger.New(cfg.JSON,
		logger.WithOutput(a.stderr),
		logger.WithLevel(level),
		logger.WithANSI(!a.noANSI && isTerminal(a.stderr)),
	)
	a.log.Trace("starting", map[string]any{"command": cmd.CommandPath()})
	a.log.Debug("config loaded", map[string]any{"path": a.configPath, "platform": cfg.Platform, "drain": cfg.Drain})
	return nil
}

// usageError marks a bad flag or config value.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
