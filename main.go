package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"polizas-backend/config"
	"polizas-backend/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile      string
	printRoutes  bool
	skipMigrate  bool
	shutdownWait time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "polizas",
	Short:         "Backend for policy payment notices",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the housekeeping scheduler",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

var housekeepingCmd = &cobra.Command{
	Use:   "housekeeping",
	Short: "Run a notice housekeeping pass once",
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete paid notices whose due date is more than the window in the past",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHousekeeping(cmd.Context(), func(ctx context.Context, a *app) (int, error) {
			purged, err := a.notices.PurgeStale(ctx)
			return len(purged), err
		})
	},
}

var reimburseCmd = &cobra.Command{
	Use:   "reimburse",
	Short: "Move paid notices due within the window back to avisar",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHousekeeping(cmd.Context(), func(ctx context.Context, a *app) (int, error) {
			reset, err := a.notices.ReimburseUpcoming(ctx)
			return len(reset), err
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")
	serveCmd.Flags().BoolVar(&printRoutes, "print-routes", false, "Print the registered routes at startup")
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not migrate the schema before serving")
	serveCmd.Flags().DurationVar(&shutdownWait, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests")

	housekeepingCmd.AddCommand(purgeCmd, reimburseCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, housekeepingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if !skipMigrate {
		if err := config.Migrate(a.db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(a.cfg, a.handlers(), a.logger)
	if printRoutes {
		for _, route := range r.Routes() {
			fmt.Printf("%-6s %s\n", route.Method, route.Path)
		}
	}

	a.housekeeping.Start()
	defer a.housekeeping.Stop()

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if err := config.Migrate(a.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.logger.Info("schema migrated")
	return nil
}

func runHousekeeping(parent context.Context, pass func(context.Context, *app) (int, error)) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, time.Minute)
	defer cancel()

	n, err := pass(ctx, a)
	if err != nil {
		return err
	}
	fmt.Printf("%d notices affected\n", n)
	return nil
}
