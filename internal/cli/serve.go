package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"courtcal/internal/ics"
	appLog "courtcal/internal/log"
	"courtcal/internal/store"
	"courtcal/internal/web"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic ICS export",
		RunE: func(cmd *cobra.Command, args []string) error {
			// CLI --listen overrides config file listen if provided.
			if listen != "" {
				conf.Listen = listen
			}
			appLog.Info("courtcal starting", "version", version)
			appLog.Info("effective config",
				"listen", conf.Listen,
				"timezone", conf.Timezone,
				"week_start", conf.WeekStart,
				"database", conf.Database,
				"clubs", len(conf.Clubs),
				"export_cron", conf.Export.Cron,
				"export_path", conf.Export.Path,
			)

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			srv, err := web.NewServer(ctx, conf, st)
			if err != nil {
				return err
			}

			if conf.Export.Path != "" {
				scheduler, err := startExportJob(ctx, st)
				if err != nil {
					return err
				}
				defer func() { <-scheduler.Stop().Done() }()
			}

			httpSrv := &http.Server{
				Addr:              conf.Listen,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				appLog.Info("signal received, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				appLog.Error("HTTP shutdown failed", err)
			}
			appLog.Info("courtcal exiting")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

// startExportJob writes the ICS export once now and then on the configured
// cron schedule, in the configured timezone.
func startExportJob(ctx context.Context, st *store.Store) (*cron.Cron, error) {
	loc := conf.Location()
	job := func() {
		classes, err := st.ListClasses(ctx, "")
		if err != nil {
			appLog.Error("ics export: load classes failed", err)
			return
		}
		if err := ics.WriteFile(conf.Export.Path, classes, loc); err != nil {
			appLog.Error("ics export: write failed", err, "path", conf.Export.Path)
			return
		}
		appLog.Debug("ics export written", "path", conf.Export.Path, "classes", len(classes))
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(conf.Export.Cron, job); err != nil {
		return nil, err
	}
	job()
	c.Start()
	appLog.Info("ics export scheduled", "cron", conf.Export.Cron, "path", conf.Export.Path)
	return c, nil
}

// exportOnce is used by the export command when no schedule is wanted.
func exportOnce(ctx context.Context, st *store.Store, path string) (int, error) {
	classes, err := st.ListClasses(ctx, "")
	if err != nil {
		return 0, err
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.WriteString(ics.ExportString(classes, conf.Location()))
		return len(classes), err
	}
	return len(classes), ics.WriteFile(path, classes, conf.Location())
}
