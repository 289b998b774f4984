// Command mpp-server is the MPP reply-side daemon: it binds a TCP
// listener, spreads connections across a reactor pool, and answers
// ISSING/FOF requests using either an in-memory noun table or a
// MariaDB-backed one. Mirrors cmd/proxysip/main.go's shape (flag
// parsing, zerolog console writer, a side HTTP listener for metrics)
// generalised onto the MPP domain and pflag per spec.md §6's exit-code
// contract.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/victorcarri/mpp/config"
	"github.com/victorcarri/mpp/engine"
	"github.com/victorcarri/mpp/transport"
)

// Exit codes per spec.md §6.
const (
	exitOK              = 0
	exitHelp            = 1
	exitInvalidOption   = 2
	exitUnknownOption   = 3
	exitAmbiguousOption = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("mpp-server", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	address := fs.String("address", "0.0.0.0", "address to bind the MPP listener to")
	port := fs.Int("port", 9999, "port to bind the MPP listener to")
	threads := fs.Int("threads", 4, "number of reactor goroutines in the pool")
	metricsAddr := fs.String("metrics-address", ":9090", "address for the /metrics HTTP side listener")
	dbConfigPath := fs.String("dbconfigfilepath", "", "path to the DB config file (key=value); omit to use an empty in-memory noun table")
	debug := fs.Bool("debug", false, "enable debug-level logging")
	help := fs.BoolP("help", "h", false, "show usage and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fs.PrintDefaults()
			return exitHelp
		}
		return exitCodeFor(err, fs)
	}
	if *help {
		fs.PrintDefaults()
		return exitHelp
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out: os.Stdout,
	}).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	if *threads <= 0 {
		log.Error().Int("threads", *threads).Msg("--threads must be positive")
		return exitInvalidOption
	}

	nounEngine, closeEngine, err := buildEngine(*dbConfigPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to set up noun engine")
		return exitInvalidOption
	}
	if closeEngine != nil {
		defer closeEngine()
	}

	reg := prometheus.NewRegistry()
	metrics := transport.NewMetrics(reg)
	go serveMetrics(*metricsAddr, reg)

	pool, err := transport.NewPool(*threads, log.Logger)
	if err != nil {
		log.Error().Err(err).Msg("failed to build reactor pool")
		return exitInvalidOption
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", *address, *port))
	if err != nil {
		log.Error().Err(err).Msg("failed to bind listener")
		return exitInvalidOption
	}

	acceptor := transport.NewAcceptor(listener, pool, nounEngine, metrics, log.Logger)
	ctx, stop := acceptor.NotifyShutdownSignals(context.Background())
	defer stop()

	go pool.Run()
	log.Info().Str("address", listener.Addr().String()).Int("threads", *threads).Msg("mpp-server listening")

	if err := acceptor.Serve(); err != nil {
		log.Error().Err(err).Msg("accept loop exited with error")
	}
	<-ctx.Done()
	return exitOK
}

// buildEngine wires an in-memory noun table when no DB config path is
// given, or an SQL-backed one watched for edits otherwise: a
// config.Watcher reloads dbConfigPath on write/create and the reload
// callback opens a fresh SQLTable against the new credentials and
// hot-swaps it into the engine via engine.SwappableTable, so rotating
// DB credentials doesn't require restarting mpp-server.
func buildEngine(dbConfigPath string) (transport.NounEngine, func(), error) {
	if dbConfigPath == "" {
		return engine.New(engine.NewMemoryTable()), nil, nil
	}

	watchLog := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("caller", "config.Watcher")
	watcher, err := config.NewWatcher(dbConfigPath, watchLog)
	if err != nil {
		return nil, nil, err
	}

	table, err := engine.OpenSQLTable(watcher.Current())
	if err != nil {
		watcher.Close()
		return nil, nil, err
	}

	swappable := engine.NewSwappableTable(table)
	var active atomic.Pointer[engine.SQLTable]
	active.Store(table)

	go watcher.Watch(func(cfg *config.DBConfig) {
		newTable, err := engine.OpenSQLTable(cfg)
		if err != nil {
			log.Error().Err(err).Msg("failed to open SQL table for reloaded DB config")
			return
		}
		swappable.Swap(newTable)
		if old := active.Swap(newTable); old != nil {
			old.Close()
		}
	})

	closeFn := func() {
		watcher.Close()
		if t := active.Load(); t != nil {
			t.Close()
		}
	}
	return engine.New(swappable), closeFn, nil
}

func serveMetrics(address string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info().Str("address", address).Msg("metrics server listening")
	if err := http.ListenAndServe(address, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}

// exitCodeFor classifies a pflag parse error into spec.md §6's exit
// code set. pflag's own error strings are the only signal available;
// "ambiguous" never actually occurs with pflag's parser (it has no
// abbreviation matching), so that branch is unreachable today but kept
// since spec.md still names it as a future-facing exit code.
func exitCodeFor(err error, fs *pflag.FlagSet) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unknown flag") || strings.Contains(msg, "unknown shorthand flag"):
		fs.PrintDefaults()
		return exitUnknownOption
	case strings.Contains(msg, "ambiguous"):
		fs.PrintDefaults()
		return exitAmbiguousOption
	default:
		fs.PrintDefaults()
		return exitInvalidOption
	}
}
