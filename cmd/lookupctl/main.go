package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/location-lookup/internal/bootstrap"
	"github.com/location-lookup/internal/config"
	"github.com/location-lookup/internal/infrastructure/search"
	"github.com/location-lookup/internal/pkg/logger"
	"github.com/location-lookup/internal/pkg/metrics"
	"github.com/location-lookup/internal/repository/cache"
	"github.com/location-lookup/internal/usecase"
	"github.com/location-lookup/internal/usecase/dto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// session - зависимости, общие для подкоманд; собираются один раз перед запуском
type session struct {
	cfg      *config.Config
	log      *zap.Logger
	client   *search.Client
	resolver *usecase.ResolverUseCase
	close    func() error
}

func main() {
	s := &session{}
	root := newRootCmd(s)
	err := root.Execute()
	if s.close != nil {
		if cerr := s.close(); cerr != nil {
			fmt.Fprintln(os.Stderr, cerr)
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(s *session) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "lookupctl",
		Short:         "Location lookup operator CLI",
		Long:          `Runs resolve and search queries against the configured search backend without the HTTP layer. Configuration is read from .env and the environment, as for the API.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open()
		},
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "overall command timeout")

	ctx := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}

	root.AddCommand(newResolveCmd(s, ctx))
	root.AddCommand(newSearchCmd(s, ctx))
	root.AddCommand(newPingCmd(s, ctx))
	return root
}

func (s *session) open() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	backend, closeBackend, err := bootstrap.NewSearchBackend(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize search backend: %w", err)
	}

	mt := metrics.NewMetrics()
	client := search.NewClient(backend, &cfg.Search, mt, log)
	memory := cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.Shards)

	s.cfg = cfg
	s.log = log
	s.client = client
	s.resolver = bootstrap.NewResolver(cfg, client, memory, nil, mt, log)
	s.close = func() error {
		_ = log.Sync()
		return closeBackend()
	}
	return nil
}

type contextFunc func(cmd *cobra.Command) (context.Context, context.CancelFunc)

// queryFlags - те же параметры, что у /api/v1/locations/*
type queryFlags struct {
	term, locale, lat, lon, radius, types, limit, country string
}

func (f *queryFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.term, "term", "t", "", "name to look up")
	fl.StringVarP(&f.locale, "locale", "l", "", "result language (default: DEFAULT_LOCALE)")
	fl.StringVar(&f.lat, "lat", "", "latitude, together with --lon")
	fl.StringVar(&f.lon, "lon", "", "longitude, together with --lat")
	fl.StringVarP(&f.radius, "radius", "r", "", "search radius in km, requires --lat/--lon")
	fl.StringVar(&f.types, "type", "", "comma-separated entity types (city,region,venue)")
	fl.StringVarP(&f.limit, "limit", "n", "", "maximum number of results")
	fl.StringVar(&f.country, "country", "", "ISO 3166-1 alpha-2 country filter")
}

func (f *queryFlags) params() dto.LocationQueryParams {
	return dto.LocationQueryParams{
		Term:       f.term,
		Locale:     f.locale,
		Lat:        f.lat,
		Lon:        f.lon,
		Radius:     f.radius,
		Type:       f.types,
		Limit:      f.limit,
		CountryISO: f.country,
	}
}

func newResolveCmd(s *session, ctxFn contextFunc) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a query into a single location",
		Example: `  lookupctl resolve --term Praha --locale cs
  lookupctl resolve --lat 50.08 --lon 14.43 --radius 5 --type city`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := ctxFn(cmd)
			defer cancel()

			resp, err := s.resolver.Resolve(ctx, flags.params())
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newSearchCmd(s *session, ctxFn contextFunc) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List ranked candidates for a query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := ctxFn(cmd)
			defer cancel()

			resp, err := s.resolver.Search(ctx, flags.params())
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newPingCmd(s *session, ctxFn contextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the search backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := ctxFn(cmd)
			defer cancel()

			start := time.Now()
			if err := s.client.Ping(ctx, s.cfg.Search.Timeout); err != nil {
				return fmt.Errorf("%s is not reachable: %w", s.client.BackendName(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is reachable (%s)\n", s.client.BackendName(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
