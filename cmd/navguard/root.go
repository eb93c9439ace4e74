package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	navguard "github.com/MrEthical07/navGuard"
	"github.com/MrEthical07/navGuard/routes"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	var routesFile string

	root := &cobra.Command{
		Use:           "navguard",
		Short:         "Route table and navigation guard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&routesFile, "routes", "", "TOML route file (default: built-in table, or NAVGUARD_ROUTES_FILE)")

	loadTable := func() (*routes.Table, error) {
		path := routesFile
		if path == "" {
			path = os.Getenv("NAVGUARD_ROUTES_FILE")
		}
		if path == "" {
			return routes.Default(), nil
		}
		return routes.LoadFile(path)
	}

	root.AddCommand(
		newServeCmd(&routesFile),
		newRoutesCmd(loadTable),
		newResolveCmd(loadTable),
		newDecideCmd(loadTable),
		newLoadtestCmd(loadTable),
	)
	return root
}

func newServeCmd(routesFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the guarded application over HTTP",
		Long: `Serve guarded pages, the session API, /metrics, and /healthz.

Configuration is read from NAVGUARD_* environment variables. Without
NAVGUARD_REDIS_ADDR an embedded Redis is started, which loses every login on
exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServerConfig()
			if err != nil {
				return err
			}
			if *routesFile != "" {
				cfg.RoutesFile = *routesFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := newLogger(cfg.LogLevel, cfg.Development)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg ServerConfig, logger *zap.Logger) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	go a.sweep(ctx, cfg.ClientIdle/2)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newRoutesCmd(loadTable func() (*routes.Table, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table in match order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable()
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), table)
		},
	}
}

func newResolveCmd(loadTable func() (*routes.Table, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show the record a path resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable()
			if err != nil {
				return err
			}
			return printMatch(cmd.OutOrStdout(), table.Resolve(args[0]))
		},
	}
}

func newDecideCmd(loadTable func() (*routes.Table, error)) *cobra.Command {
	var state navguard.AuthState

	cmd := &cobra.Command{
		Use:   "decide <path>",
		Short: "Run the guard for a path under a given auth state",
		Long: `Run the guard for a path the way a navigation would, following redirect
records, and print where the client ends up. No credentials are loaded or
cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := loadTable()
			if err != nil {
				return err
			}
			engine, err := navguard.New().WithRoutes(table).Build()
			if err != nil {
				return err
			}
			defer engine.Close()

			state.AuthReady = true
			if state.IsTokenValid && state.Token == "" {
				state.Token = "offline"
			}
			d, err := engine.Navigate(cmd.Context(), staticStore{state: state}, args[0], "")
			if err != nil {
				return err
			}
			return printDecision(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().BoolVar(&state.IsLoggedIn, "logged-in", false, "the session is logged in")
	cmd.Flags().BoolVar(&state.IsTokenValid, "token-valid", false, "the session token is valid")
	return cmd
}

// staticStore is a ready AuthStore with a fixed state.
type staticStore struct {
	state navguard.AuthState
}

func (s staticStore) Snapshot() navguard.AuthState                     { return s.state }
func (staticStore) CheckAuth(context.Context) error                    { return nil }
func (staticStore) HandleSessionExpired(context.Context, string) error { return nil }

func printTable(w io.Writer, table *routes.Table) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tNAME\tVIEW\tACCESS")
	for _, rec := range table.Records() {
		view := rec.Component.View
		if rec.IsRedirect() {
			view = "-> " + rec.Redirect
		} else if rec.Component.Lazy {
			view += " (lazy)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.Path, orDash(rec.Name), orDash(view), access(rec))
	}
	return tw.Flush()
}

func printMatch(w io.Writer, m routes.Match) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "path\t%s\n", m.Path)
	fmt.Fprintf(tw, "route\t%s\n", m.Record.Path)
	fmt.Fprintf(tw, "name\t%s\n", orDash(m.Record.Name))
	if m.Record.IsRedirect() {
		fmt.Fprintf(tw, "redirect\t%s\n", m.Record.Redirect)
	} else {
		fmt.Fprintf(tw, "view\t%s\n", orDash(m.Record.Component.View))
	}
	fmt.Fprintf(tw, "access\t%s\n", access(m.Record))
	if len(m.Params) > 0 {
		keys := make([]string, 0, len(m.Params))
		for k := range m.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "param %s\t%s\n", k, m.Params[k])
		}
	}
	if m.NotFound() {
		fmt.Fprintln(tw, "not found\ttrue")
	}
	return tw.Flush()
}

func printDecision(w io.Writer, d navguard.Decision) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "outcome\t%s\n", d.Outcome)
	fmt.Fprintf(tw, "target\t%s\n", orDash(d.Target.Record.Name))
	if d.RedirectedFrom != "" {
		fmt.Fprintf(tw, "redirected from\t%s\n", d.RedirectedFrom)
	}
	fmt.Fprintf(tw, "destination\t%s\n", d.Destination)
	return tw.Flush()
}

func access(rec routes.Record) string {
	var flags []string
	if rec.Meta.RequiresAuth {
		flags = append(flags, "requires-auth")
	}
	if rec.Meta.GuestOnly {
		flags = append(flags, "guest-only")
	}
	if len(flags) == 0 {
		return "public"
	}
	return strings.Join(flags, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
