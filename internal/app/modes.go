package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/kalshibot/internal/domain"
	"github.com/alanyoungcy/kalshibot/internal/evaluator"
	"github.com/alanyoungcy/kalshibot/internal/fees"
	"github.com/alanyoungcy/kalshibot/internal/pipeline"
	"github.com/alanyoungcy/kalshibot/internal/platform/kalshi"
	"github.com/alanyoungcy/kalshibot/internal/server"
	"github.com/alanyoungcy/kalshibot/internal/server/handler"
)

// ScanMode runs one evaluation pass over every configured market, logs each
// verdict, and exits. Intended for cron jobs and manual checks.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Int("markets", len(a.cfg.Evaluator.Tickers)))

	ev, err := a.buildEvaluator(deps)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	decisions := ev.EvaluateAll(ctx)
	for _, dec := range decisions {
		attrs := []any{
			slog.String("ticker", dec.Ticker),
			slog.String("action", string(dec.Action)),
			slog.String("reason", dec.Reason),
		}
		if dec.Action == domain.ActionQuote {
			attrs = append(attrs,
				slog.Int("bid", dec.RecommendedBid),
				slog.Int("ask", dec.RecommendedAsk),
				slog.Float64("net_profit_cents", dec.ExpectedNetProfit),
			)
		}
		a.logger.InfoContext(ctx, "scan result", attrs...)
	}

	a.logger.InfoContext(ctx, "scan complete",
		slog.Int("evaluated", len(decisions)),
		slog.Int("requested", len(a.cfg.Evaluator.Tickers)),
	)
	return nil
}

// MonitorMode runs the polling evaluation loop plus the HTTP server.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	ev, err := a.buildEvaluator(deps)
	if err != nil {
		return fmt.Errorf("monitor mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ev.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("monitor mode: evaluation loop: %w", err)
		}
		return nil
	})

	a.startArchiver(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, ev)
	}

	return g.Wait()
}

// StreamMode evaluates on WebSocket orderbook pushes instead of polling.
func (a *App) StreamMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting stream mode",
		slog.String("ws_url", a.cfg.Kalshi.WsURL))

	ev, err := a.buildEvaluator(deps)
	if err != nil {
		return fmt.Errorf("stream mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if err := a.startWSFeed(ctx, g, ev); err != nil {
		return fmt.Errorf("stream mode: %w", err)
	}

	a.startArchiver(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, ev)
	}

	return g.Wait()
}

// FullMode runs everything: the polling loop, the WebSocket feed, archival,
// and the HTTP server. Polling backstops the stream for markets whose pushes
// go quiet.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	ev, err := a.buildEvaluator(deps)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ev.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("full mode: evaluation loop: %w", err)
		}
		return nil
	})

	if err := a.startWSFeed(ctx, g, ev); err != nil {
		a.logger.WarnContext(ctx, "full mode: websocket feed unavailable, continuing with polling only",
			slog.String("error", err.Error()))
	}

	a.startArchiver(ctx, g, deps)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, ev)
	}

	return g.Wait()
}

// buildEvaluator assembles the evaluation pipeline from config and wired
// dependencies.
func (a *App) buildEvaluator(deps *Dependencies) (*evaluator.Evaluator, error) {
	role, err := fees.ParseRole(a.cfg.Evaluator.Role)
	if err != nil {
		return nil, err
	}

	schedule := fees.Default()
	if a.cfg.Fees.MakerRate > 0 {
		schedule.MakerRate = a.cfg.Fees.MakerRate
	}
	if a.cfg.Fees.TakerRate > 0 {
		schedule.TakerRate = a.cfg.Fees.TakerRate
	}

	cfg := evaluator.Config{
		Tickers:           a.cfg.Evaluator.Tickers,
		Contracts:         a.cfg.Evaluator.Contracts,
		MinProfitCents:    a.cfg.Evaluator.MinProfitCents,
		Role:              role,
		Depth:             a.cfg.Evaluator.Depth,
		TopOfBookFallback: a.cfg.Evaluator.TopOfBookFallback,
		PollInterval:      a.cfg.Evaluator.PollInterval.Duration,
	}

	return evaluator.New(cfg, deps.KalshiClient, schedule, evaluator.Deps{
		Snapshots:     deps.Snapshots,
		Decisions:     deps.Decisions,
		Books:         deps.Books,
		DecisionCache: deps.DecisionCache,
		Bus:           deps.Bus,
		Notifier:      deps.Notifier,
	}, a.logger), nil
}

// startWSFeed connects the WebSocket client, subscribes to the configured
// markets, and routes orderbook pushes into the evaluator.
func (a *App) startWSFeed(ctx context.Context, g *errgroup.Group, ev *evaluator.Evaluator) error {
	ws := kalshi.NewWSClient(a.cfg.Kalshi.WsURL)
	ws.OnOrderbook(func(ob kalshi.Orderbook) {
		ev.HandleWSOrderbook(ctx, ob)
	})

	if err := ws.Connect(ctx); err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	if err := ws.Subscribe(ctx, a.cfg.Evaluator.Tickers); err != nil {
		_ = ws.Close()
		return fmt.Errorf("websocket subscribe: %w", err)
	}

	g.Go(func() error {
		<-ctx.Done()
		return ws.Close()
	})
	return nil
}

// startArchiver adds the cold-storage cron goroutine when archival is wired.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Archive.Enabled || deps.Archiver == nil {
		return
	}

	arch := pipeline.NewArchiver(deps.Archiver, a.cfg.Archive.RetentionDays, a.logger)
	g.Go(func() error {
		err := arch.RunCron(ctx, a.cfg.Archive.Cron)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
}

// startHTTPServer adds the HTTP API goroutines to the given errgroup. The
// server is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, ev *evaluator.Evaluator) {
	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Decisions: handler.NewDecisionHandler(deps.Decisions, deps.DecisionCache, a.logger),
		Books:     handler.NewBookHandler(deps.Books, deps.Snapshots, a.logger),
		Evaluate:  handler.NewEvaluateHandler(ev, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		APIKey:      a.cfg.Server.APIKey,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
