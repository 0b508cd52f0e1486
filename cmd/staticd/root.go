package main

import (
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ygrebnov/threadpool/internal/config"
	"github.com/ygrebnov/threadpool/internal/console"
)

const usageLine = "Usage: staticd <port> <pool-size> <max-number-of-request>"

// errUsage is returned after the usage line has been printed.
var errUsage = errors.New("invalid arguments")

type flags struct {
	config      string
	root        string
	metricsAddr string
	accessLog   string
	logLevel    string
	quiet       bool
}

// newRootCmd builds the staticd command. A nil con prints to stderr.
func newRootCmd(con *console.Console) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "staticd <port> <pool-size> <max-number-of-request>",
		Short: "A small static file server backed by a fixed worker pool.",
		Long: `A small static file server backed by a fixed worker pool.

staticd accepts max-number-of-request connections on port, serves one request per
connection from the document root, then drains its worker pool and exits.
For example:
  staticd 8080 4 1000 --root ./public`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if con == nil {
				con = console.New(f.quiet)
			}

			port, poolSize, maxConns, err := parseArgs(args)
			if err != nil {
				con.Usage(usageLine)
				return errUsage
			}

			cfg, err := config.Load(f.config)
			if err != nil {
				con.Error("Error loading config: %v", err)
				return err
			}
			cfg.Port, cfg.PoolSize, cfg.MaxConnections = port, poolSize, maxConns
			applyFlagOverrides(cmd, &f, cfg)

			if err := cfg.Validate(); err != nil {
				con.Error("%v", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, con)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&f.config, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&f.root, "root", "r", "", "Document root (overrides config)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
	cmd.Flags().StringVar(&f.accessLog, "access-log", "", "SQLite access log path (overrides config)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Quiet mode, no console output except for errors")
	return cmd
}

// parseArgs requires exactly three positive integers.
func parseArgs(args []string) (port, poolSize, maxConns int, err error) {
	if len(args) != 3 {
		return 0, 0, 0, errUsage
	}
	var vals [3]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n <= 0 {
			return 0, 0, 0, errUsage
		}
		vals[i] = n
	}
	return vals[0], vals[1], vals[2], nil
}

func applyFlagOverrides(cmd *cobra.Command, f *flags, cfg *config.Config) {
	if cmd.Flags().Changed("root") {
		cfg.Root = f.root
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if cmd.Flags().Changed("access-log") {
		cfg.AccessLogDB = f.accessLog
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}
