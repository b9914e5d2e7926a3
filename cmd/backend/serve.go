package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hairizuan-noorazman/testcase-archive/cmd/backend/handlers"
	"github.com/hairizuan-noorazman/testcase-archive/database"
	"github.com/hairizuan-noorazman/testcase-archive/logger"
	"github.com/hairizuan-noorazman/testcase-archive/storage"
	"github.com/hairizuan-noorazman/testcase-archive/testcase"
	"github.com/hairizuan-noorazman/testcase-archive/testrun"
	"github.com/spf13/cobra"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	dbCfg := database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	log.Info(ctx, "database connected", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	blobs, err := storage.NewBlobStorage(cfg.Storage.Type, map[string]interface{}{
		"base_dir": cfg.Storage.BaseDir,
		"region":   cfg.Storage.S3Region,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info(ctx, "storage initialized", map[string]interface{}{
		"type": cfg.Storage.Type,
	})

	// Initialize stores
	testCaseStore := testcase.NewMySQLStore(db, blobs, log).
		WithAttachmentBucket(cfg.Storage.AttachmentBucket)
	testRunStore := testrun.NewMySQLStore(db, log)
	reportCache := testrun.NewReportCache(blobs, log).
		WithBucket(cfg.Storage.ReportBucket)

	// Setup router
	router := mux.NewRouter()

	router.HandleFunc("/health", handlers.NewHealthHandler(db).Handler).Methods("GET")

	testCaseHandler := handlers.NewTestCaseHandler(testCaseStore, log)
	testRunHandler := handlers.NewTestRunHandler(testRunStore, reportCache, log)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	apiRouter.HandleFunc("/testcases", testCaseHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/testcases", testCaseHandler.List).Methods("GET")
	apiRouter.HandleFunc("/testcases/{id}", testCaseHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/testcases/{id}", testCaseHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/testcases/{id}", testCaseHandler.Delete).Methods("DELETE")

	apiRouter.HandleFunc("/testcases/{id}/attachments", testCaseHandler.UploadAttachment).Methods("POST")
	apiRouter.HandleFunc("/testcases/{id}/attachments", testCaseHandler.ListAttachments).Methods("GET")
	apiRouter.HandleFunc("/attachments/{id}", testCaseHandler.DownloadAttachment).Methods("GET")
	apiRouter.HandleFunc("/attachments/{id}", testCaseHandler.DeleteAttachment).Methods("DELETE")

	apiRouter.HandleFunc("/testruns", testRunHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/testruns", testRunHandler.List).Methods("GET")
	apiRouter.HandleFunc("/testruns/{id}", testRunHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/testruns/{id}", testRunHandler.Delete).Methods("DELETE")
	apiRouter.HandleFunc("/testruns/{id}/finalize", testRunHandler.Finalize).Methods("POST")
	apiRouter.HandleFunc("/testruns/{id}/report", testRunHandler.GetReport).Methods("GET")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info(ctx, "server listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info(ctx, "server stopped", nil)
	return nil
}
