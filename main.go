package main

import (
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"roadsafetyestimator/collections"
	"roadsafetyestimator/commands"
	"roadsafetyestimator/config"
	"roadsafetyestimator/handlers"
	"roadsafetyestimator/services"
)

func main() {
	envFile := config.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}

	logger := services.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	if envFile != "" {
		logger.Info("loaded environment file", zap.String("path", envFile))
	}

	catalog := services.LoadCatalog(cfg.CatalogPaths(), logger)
	mailer := services.NewSMTPMailer(cfg.SMTP.Mailer(), logger)
	if !mailer.Configured() {
		logger.Warn("SMTP credentials not configured, email delivery disabled")
	}

	if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
		logger.Fatal("cannot create report directory", zap.String("dir", cfg.Report.OutputDir), zap.Error(err))
	}
	est := services.NewEstimator(catalog, cfg.Tunables(), mailer, cfg.Report.OutputDir, logger)

	app := pocketbase.New()
	app.RootCmd.AddCommand(commands.NewEstimateCommand(est, cfg.Report))

	// Routes are registered after this hook, so they see the resolved catalog
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if err := collections.Setup(se.App); err != nil {
			return err
		}
		resolved, err := collections.ResolveCatalog(se.App, catalog)
		if err != nil {
			logger.Warn("catalog sync failed", zap.Error(err))
		}
		if resolved != catalog {
			est = services.NewEstimator(resolved, cfg.Tunables(), mailer, cfg.Report.OutputDir, logger)
		}
		logger.Info("catalog ready", zap.Int("entries", resolved.Len()), zap.String("source", resolved.Source()))
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.BindFunc(handlers.RequestLogMiddleware(logger))

		se.Router.GET("/", handlers.HandleIndex(est, cfg.Report))
		se.Router.POST("/estimate", handlers.HandleEstimate(est, cfg.Report, logger))
		se.Router.GET("/reports/{name}", handlers.HandleReportDownload(est.OutputDir(), logger))
		se.Router.GET("/catalog", handlers.HandleCatalogList(se.App, logger))
		se.Router.GET("/api/locations", handlers.HandleLocations())
		se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
