package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/searchkv/internal/domain"
	chiTransport "github.com/kailas-cloud/searchkv/internal/transport/chi"
	healthuc "github.com/kailas-cloud/searchkv/internal/usecase/health"
	queryuc "github.com/kailas-cloud/searchkv/internal/usecase/query"
	"github.com/kailas-cloud/searchkv/internal/version"
)

// filterFlags are shared by every query command.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "where", Usage: "Equality filter field=value (repeatable)"},
		&cli.StringSliceFlag{Name: "not", Usage: "Negated filter field=value (repeatable)"},
		&cli.StringSliceFlag{Name: "missing", Usage: "Match records without the field (repeatable)"},
		&cli.StringSliceFlag{Name: "q", Usage: "Raw query term (repeatable)"},
	}
}

func applyFilters(c *cli.Command, s *queryuc.Session) error {
	for _, name := range []string{"where", "not"} {
		for _, pair := range c.StringSlice(name) {
			field, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("--%s must be field=value, got %q", name, pair)
			}
			if name == "where" {
				s.Where(field, value)
			} else {
				s.WhereNot(field, value)
			}
		}
	}
	for _, field := range c.StringSlice("missing") {
		s.WhereMissing(field)
	}
	for _, term := range c.StringSlice("q") {
		s.Query(term)
	}
	return nil
}

// withSession runs fn against a session carrying the command's filters.
func withSession(ctx context.Context, c *cli.Command, fn func(*queryuc.Session) (any, error)) error {
	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.close()

	sess := a.sessionFactory()(a.logger)
	if err := applyFilters(c, sess); err != nil {
		return err
	}

	out, err := fn(sess)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API server",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c)
		},
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("Starting searchkv API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.Int("http_port", a.cfg.HTTP.Port),
		zap.Strings("db_addrs", a.cfg.Database.Addrs),
		zap.String("collection", a.records.Collection().KeyPrefix()),
		zap.String("datatype", string(a.records.Datatype())),
	)

	health := healthuc.New(a.store, a.store, a.records.Collection().Index)
	server := chiTransport.NewServer(a.sessionFactory(), health, a.logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.HTTP.Port),
		Handler:      server.Handler(a.cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}

func countCommand() *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Count records matching the filters",
		Flags: filterFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withSession(ctx, c, func(s *queryuc.Session) (any, error) {
				n, err := s.Count(ctx)
				return chiTransport.CountResponse{Count: n}, err
			})
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:  "get",
		Usage: "Fetch the single record matching the filters",
		Flags: filterFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withSession(ctx, c, func(s *queryuc.Session) (any, error) {
				return s.Get(ctx)
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List records matching the filters",
		Flags: append(filterFlags(),
			&cli.IntFlag{Name: "rows", Usage: "Maximum number of records", Value: -1},
			&cli.IntFlag{Name: "start", Usage: "Offset of the first record"},
			&cli.StringFlag{Name: "sort", Usage: "Sort field"},
			&cli.BoolFlag{Name: "desc", Usage: "Sort descending"},
			&cli.BoolFlag{Name: "raw", Usage: "Print search hits instead of stored records"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withSession(ctx, c, func(s *queryuc.Session) (any, error) {
				if rows := c.Int("rows"); rows >= 0 {
					s.Rows(rows)
				}
				if c.IsSet("start") {
					s.Start(c.Int("start"))
				}
				if sort := c.String("sort"); sort != "" {
					s.SortBy(sort, c.Bool("desc"))
				}
				if c.Bool("raw") {
					s.Raw()
				}

				res, err := s.Iterate(ctx)
				if err != nil {
					return nil, err
				}
				return chiTransport.NewListResponse(res), nil
			})
		},
	}
}

func atCommand() *cli.Command {
	return &cli.Command{
		Name:      "at",
		Usage:     "Fetch the record at a zero-based position in the result set",
		ArgsUsage: "POSITION",
		Flags:     filterFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			pos, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return fmt.Errorf("position %q: %w", c.Args().First(), domain.ErrInvalidIndex)
			}
			return withSession(ctx, c, func(s *queryuc.Session) (any, error) {
				return s.GetAt(ctx, pos)
			})
		},
	}
}

func putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Save a record; JSON objects are stored as field maps",
		ArgsUsage: "KEY VALUE",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 2 {
				return fmt.Errorf("put expects KEY VALUE, got %d arguments", c.NArg())
			}
			key, value := c.Args().Get(0), c.Args().Get(1)

			a, err := newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			sess := a.sessionFactory()(a.logger)
			if err := sess.Save(ctx, key, domain.ParseValue([]byte(value))); err != nil {
				return err
			}
			return printJSON(map[string]string{"key": a.records.Collection().Key(key)})
		},
	}
}

func keysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Stream record ids by scanning the key space",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "count", Usage: "Only print the number of keys"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			if c.Bool("count") {
				n, err := a.records.CountKeys(ctx)
				if err != nil {
					return err
				}
				return printJSON(chiTransport.CountResponse{Count: n})
			}

			for batch, err := range a.records.StreamKeys(ctx) {
				if err != nil {
					return err
				}
				for _, id := range batch {
					fmt.Println(id)
				}
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, _ *cli.Command) error {
			fmt.Println(version.String())
			return nil
		},
	}
}
