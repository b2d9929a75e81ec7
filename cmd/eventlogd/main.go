// Command eventlogd wires the logger facade to a real filesystem and
// SQL backend: flag-based configuration, a maintenance loop that
// periodically drains the circular buffer, and an HTTP /metrics
// endpoint.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mickamy/query-eventlog/logger"
	"github.com/mickamy/query-eventlog/metrics"
	"github.com/mickamy/query-eventlog/sqlstore"
)

const Version = "0.1.0"

func VersionString() string {
	return fmt.Sprintf("eventlogd %s", Version)
}

func main() {
	fs := flag.NewFlagSet("eventlogd", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "eventlogd — query-and-audit event logger\n\nUsage:\n  eventlogd [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	eventsFilename := fs.String("events-filename", "", "base filename for the query event log; empty disables")
	eventsDataDir := fs.String("events-datadir", ".", "data directory for the query event log")
	eventsFileSize := fs.Int64("events-filesize", 100*1024*1024, "rotation threshold in bytes for the query event log")
	eventsBinary := fs.Bool("events-binary", false, "use the binary wire format instead of JSON")

	auditFilename := fs.String("audit-filename", "", "base filename for the audit log; empty disables")
	auditDataDir := fs.String("audit-datadir", ".", "data directory for the audit log")
	auditFileSize := fs.Int64("audit-filesize", 100*1024*1024, "rotation threshold in bytes for the audit log")

	bufferSize := fs.Int("buffer-history-size", 0, "circular buffer capacity; 0 disables buffering")
	bufferMaxQueryLen := fs.Int("buffer-max-query-length", 1024, "query truncation length when copying into the buffer")
	memTableSize := fs.Int("table-memory-size", 0, "row budget for the in-memory SQL store; 0 leaves it unbounded")

	diskDriver := fs.String("disk-driver", "", "driver for the on-disk SQL store: mysql or postgres (empty disables)")
	diskDSN := fs.String("disk-dsn", "", "DSN for the on-disk SQL store")
	memDriver := fs.String("mem-driver", "", "driver for the in-memory SQL store: mysql or postgres (empty disables)")
	memDSN := fs.String("mem-dsn", "", "DSN for the in-memory SQL store")

	drainInterval := fs.Duration("drain-interval", 5*time.Second, "interval between maintenance drain cycles")
	httpAddr := fs.String("http", "", "HTTP listen address for /metrics (e.g. :9090); empty disables")
	showVersion := fs.Bool("version", false, "show version and exit")

	_ = fs.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(VersionString())
		return
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if err := run(log, runConfig{
		eventsFilename: *eventsFilename, eventsDataDir: *eventsDataDir,
		eventsFileSize: *eventsFileSize, eventsBinary: *eventsBinary,
		auditFilename: *auditFilename, auditDataDir: *auditDataDir, auditFileSize: *auditFileSize,
		bufferSize: *bufferSize, bufferMaxQueryLen: *bufferMaxQueryLen, memTableSize: *memTableSize,
		diskDriver: *diskDriver, diskDSN: *diskDSN, memDriver: *memDriver, memDSN: *memDSN,
		drainInterval: *drainInterval, httpAddr: *httpAddr,
	}); err != nil {
		log.Fatal().Err(err).Msg("eventlogd: fatal")
	}
}

type runConfig struct {
	eventsFilename, eventsDataDir string
	eventsFileSize                int64
	eventsBinary                  bool

	auditFilename, auditDataDir string
	auditFileSize               int64

	bufferSize, bufferMaxQueryLen, memTableSize int

	diskDriver, diskDSN, memDriver, memDSN string
	drainInterval                          time.Duration
	httpAddr                               string
}

func run(log zerolog.Logger, cfg runConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := logger.New(log, &logger.Config{
		EventsBinaryFormat:   cfg.eventsBinary,
		BufferHistorySize:    cfg.bufferSize,
		BufferMaxQueryLength: cfg.bufferMaxQueryLen,
		TableMemorySize:      cfg.memTableSize,
	}, cfg.eventsFileSize, cfg.auditFileSize)

	if err := l.SetEventsDataDir(cfg.eventsDataDir); err != nil {
		return fmt.Errorf("set events datadir: %w", err)
	}
	if err := l.SetEventsBaseFilename(cfg.eventsFilename); err != nil {
		return fmt.Errorf("set events filename: %w", err)
	}
	if err := l.SetAuditDataDir(cfg.auditDataDir); err != nil {
		return fmt.Errorf("set audit datadir: %w", err)
	}
	if err := l.SetAuditBaseFilename(cfg.auditFilename); err != nil {
		return fmt.Errorf("set audit filename: %w", err)
	}

	disk, err := openStore(cfg.diskDriver, cfg.diskDSN, "history_mysql_query_events", 0)
	if err != nil {
		return fmt.Errorf("open disk store: %w", err)
	}
	mem, err := openStore(cfg.memDriver, cfg.memDSN, "stats_mysql_query_events", cfg.memTableSize)
	if err != nil {
		return fmt.Errorf("open memory store: %w", err)
	}

	if cfg.httpAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics.NewCollector(l))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

		var lc net.ListenConfig
		lis, err := lc.Listen(ctx, "tcp", cfg.httpAddr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", cfg.httpAddr, err)
		}
		srv := &http.Server{Handler: mux}
		go func() {
			log.Info().Str("addr", cfg.httpAddr).Msg("eventlogd: metrics server listening")
			if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("eventlogd: metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	ticker := time.NewTicker(cfg.drainInterval)
	defer ticker.Stop()

	log.Info().Msg("eventlogd: maintenance loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("eventlogd: shutting down")
			return l.Flush()
		case <-ticker.C:
			if err := l.ProcessEvents(ctx, disk, mem); err != nil {
				log.Error().Err(err).Msg("eventlogd: drain cycle failed")
			}
		}
	}
}

func openStore(driver, dsn, table string, maxRows int) (*sqlstore.Store, error) {
	if driver == "" {
		return nil, nil
	}

	var dialect sqlstore.Dialect
	var sqlDriver string
	switch driver {
	case "mysql":
		dialect = sqlstore.MySQL
		sqlDriver = "mysql"
	case "postgres":
		dialect = sqlstore.Postgres
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return sqlstore.New(db, dialect, table, maxRows), nil
}
