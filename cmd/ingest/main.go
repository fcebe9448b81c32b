// Package main runs one ingestion pass from the command line and prints the
// result. Intended for operators backfilling or checking a source.
//
// Import Path: archive.alpha.io/archive/cmd/ingest
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"archive.alpha.io/archive/internal/app/modules"
	"archive.alpha.io/archive/internal/config"
	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/infrastructure"
	"archive.alpha.io/archive/internal/mapper"
	"archive.alpha.io/archive/internal/pkg/logger"
	"archive.alpha.io/archive/internal/pkg/tracing"
	"archive.alpha.io/archive/internal/pkg/worker"
	"archive.alpha.io/archive/internal/provider"
	"archive.alpha.io/archive/internal/repository"
	"archive.alpha.io/archive/internal/service"
)

// errPartial reports a run that finished with per-source or per-item errors.
var errPartial = errors.New("ingestion finished with errors")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stdout, run).ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errPartial):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "ingest error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	source  string
	params  provider.Params
	output  string
	dryRun  bool
	migrate bool
}

type runFunc func(ctx context.Context, opts options, stdout io.Writer) error

func newRootCmd(stdout io.Writer, runFn runFunc) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Run one public event ingestion pass and print the result",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			opts.source = resolveSource(opts.source)
			return runFn(cmd.Context(), opts, stdout)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.source, "source", "s", "", "source to ingest: culture, cultural or a source name (default: all enabled)")
	f.IntVar(&opts.params.PageNo, "page", 0, "page number (0 = source default)")
	f.IntVar(&opts.params.NumOfRows, "rows", 0, "rows per page (0 = source default)")
	f.StringVar(&opts.params.From, "from", "", "period start, YYYYMMDD (culture only)")
	f.StringVar(&opts.params.To, "to", "", "period end, YYYYMMDD (culture only)")
	f.StringVar(&opts.params.ServiceTp, "service-tp", "", "service type filter (culture only)")
	f.StringVar(&opts.params.Sigungu, "sigungu", "", "district code filter (culture only)")
	f.StringVarP(&opts.output, "output", "o", "yaml", "result format: yaml or json")
	f.BoolVar(&opts.dryRun, "dry-run", false, "fetch and map without writing to the database")
	f.BoolVar(&opts.migrate, "migrate", false, "apply the event schema before ingesting")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "migrate")

	return cmd
}

func (o options) validate() error {
	if err := o.params.Validate(); err != nil {
		return err
	}
	switch o.output {
	case "yaml", "json":
	default:
		return fmt.Errorf("unknown output format %q", o.output)
	}
	return nil
}

// resolveSource maps the short names used on the command line.
func resolveSource(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return ""
	case "culture":
		return domain.SourceCultureDataPortal
	case "cultural":
		return domain.SourceCulturalDataPortal
	}
	return strings.ToUpper(strings.TrimSpace(name))
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.TracerConfig())
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	sources, err := modules.BuildSources(cfg.Sources)
	if err != nil {
		return err
	}

	pool, err := worker.NewPool("fetch", cfg.Worker.PoolConfig().FetchPoolSize, time.Minute)
	if err != nil {
		return err
	}
	defer pool.Release(5 * time.Second)

	var store service.EventStore
	if opts.dryRun {
		store = &dryRunStore{}
	} else {
		db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer db.Close()
		if opts.migrate {
			if err := repository.ApplySchema(ctx, db.Pool); err != nil {
				return err
			}
		}
		store = repository.NewEventRepository(db.Pool)
	}

	svc := service.NewIngestionService(
		sources,
		mapper.New(cfg.Sources.MapperOptions()...),
		store,
		pool,
		provider.NewHealthTracker(sources...),
	)

	if cfg.Ingestion.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Ingestion.RunTimeout)
		defer cancel()
	}

	logger.Info("Starting ingestion",
		zap.String("source", opts.source),
		zap.Bool("dry_run", opts.dryRun),
	)

	var result domain.IngestionResult
	if opts.source == "" {
		result = svc.IngestAll(ctx, opts.params)
	} else {
		result, err = svc.IngestSource(ctx, opts.source, opts.params)
		if err != nil {
			return err
		}
	}

	if err := writeResult(stdout, result, opts.output); err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		return errPartial
	}
	return nil
}

func writeResult(w io.Writer, result domain.IngestionResult, format string) error {
	if format == "json" {
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return enc.Close()
}

// dryRunStore counts the events a real store would be asked to write.
type dryRunStore struct {
	mu    sync.Mutex
	valid int
}

func (s *dryRunStore) UpsertMany(_ context.Context, events []*domain.Event) int {
	n := 0
	for _, e := range events {
		if e.Validate() == nil {
			n++
		}
	}
	s.mu.Lock()
	s.valid += n
	s.mu.Unlock()
	return n
}
