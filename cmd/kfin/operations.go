package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/kfin/entity"
	"github.com/jonwraymond/kfin/health"
	"github.com/jonwraymond/kfin/observe"
)

type healthCmd struct {
	g      *globals
	asJSON bool
}

func (*healthCmd) Name() string     { return "health" }
func (*healthCmd) Synopsis() string { return "check the snapshot, the cache and today's quota" }
func (*healthCmd) Usage() string {
	return `kfin health [-json]

  Runs every health check without contacting OpenDART. Exits non-zero when
  any check is unhealthy; degraded checks still pass.
`
}

func (c *healthCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "print the report as JSON")
}

func (c *healthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var report health.Report
	err := c.g.withApp(ctx, func(a *app) error {
		idx, err := a.index(ctx, false)
		if err != nil && !errors.Is(err, errNoSnapshot) {
			return err
		}
		report = a.aggregator(idx).Run(ctx)
		if c.asJSON {
			return writeJSON(c.g.stdout, health.NewHealthResponse(report))
		}
		tw := newTable(c.g.stdout)
		for _, nr := range report.Checks {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", nr.Name, nr.Result.Status, nr.Result.Message)
		}
		fmt.Fprintf(tw, "overall\t%s\t\n", report.Status)
		return tw.Flush()
	})
	if err != nil {
		return c.g.fail(err)
	}
	if report.Status == health.StatusUnhealthy {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type serveCmd struct {
	g            *globals
	addr         string
	refreshEvery time.Duration
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve resolution, health and metrics over HTTP" }
func (*serveCmd) Usage() string {
	return `kfin serve [-addr host:port] [-refresh-every duration]

  Endpoints:
    GET /v1/resolve?q=<input>
    GET /v1/search?prefix=<prefix>&limit=<n>
    GET /healthz /readyz /health /health/<check>
    GET /metrics
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "127.0.0.1:8080", "listen address")
	f.DurationVar(&c.refreshEvery, "refresh-every", 0, "re-download the company list at this interval (0 disables)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.g.status(c.g.withApp(ctx, func(a *app) error {
		idx, err := a.index(ctx, true)
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", c.addr)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Handler:           newServeMux(idx, a.aggregator(idx)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		a.logger.Info(ctx, "serving", observe.Field{Key: "addr", Value: ln.Addr().String()})
		fmt.Fprintf(c.g.stdout, "listening on http://%s\n", ln.Addr())

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		if c.refreshEvery > 0 {
			g.Go(func() error {
				refreshLoop(gctx, a, idx, c.refreshEvery)
				return nil
			})
		}
		return g.Wait()
	}))
}

// refreshLoop reloads idx from OpenDART every interval until ctx ends.
// A failed refresh keeps the current index.
func refreshLoop(ctx context.Context, a *app, idx *entity.Index, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			records, err := a.sync(ctx)
			if err != nil {
				a.logger.Warn(ctx, "company list refresh failed",
					observe.Field{Key: "error", Value: err.Error()})
				continue
			}
			idx.Load(records)
		}
	}
}

func newServeMux(idx *entity.Index, agg *health.Aggregator) *http.ServeMux {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, agg)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/resolve", resolveHandler(idx))
	mux.HandleFunc("GET /v1/search", searchHandler(idx))
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func resolveHandler(idx *entity.Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if q == "" {
			respond(w, http.StatusBadRequest, errorResponse{Error: "missing q"})
			return
		}
		res, ok := idx.Resolve(q)
		if !ok {
			respond(w, http.StatusNotFound, errorResponse{Error: errNoMatch.Error()})
			return
		}
		respond(w, http.StatusOK, res)
	}
}

func searchHandler(idx *entity.Index) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			respond(w, http.StatusBadRequest, errorResponse{Error: "missing prefix"})
			return
		}
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				respond(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
			limit = n
		}
		records := idx.SearchByPrefix(prefix, limit)
		if records == nil {
			records = []entity.CompanyRecord{}
		}
		respond(w, http.StatusOK, records)
	}
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = writeJSON(w, v)
}
