// main is the entry point of the school-records application.
//
// Startup sequence:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Connect to (and set up) the SQLite database
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// Running the server:
//
//	go run ./cmd/school-records --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/school-records
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awh15/school-records/internal/config"
	"github.com/awh15/school-records/internal/http/handlers/course"
	"github.com/awh15/school-records/internal/http/handlers/instructor"
	"github.com/awh15/school-records/internal/http/handlers/student"
	"github.com/awh15/school-records/internal/http/handlers/transfer"
	"github.com/awh15/school-records/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting school-records",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// The rest of the code sees only the storage.Storage interface; swapping
	// the backend means changing this one line.
	storage, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("path", cfg.StoragePath))

	// Handler factories receive the storage dependency once, at registration.
	router := http.NewServeMux()

	router.HandleFunc("POST /api/students", student.New(storage))
	router.HandleFunc("GET /api/students", student.GetList(storage))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(storage))
	router.HandleFunc("PUT /api/students/{id}", student.Update(storage))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(storage))

	router.HandleFunc("POST /api/instructors", instructor.New(storage))
	router.HandleFunc("GET /api/instructors", instructor.GetList(storage))
	router.HandleFunc("GET /api/instructors/by-name/{name}", instructor.GetByName(storage))
	router.HandleFunc("GET /api/instructors/{id}", instructor.GetByID(storage))
	router.HandleFunc("PUT /api/instructors/{id}", instructor.Update(storage))
	router.HandleFunc("DELETE /api/instructors/{id}", instructor.Delete(storage))

	router.HandleFunc("POST /api/courses", course.New(storage))
	router.HandleFunc("GET /api/courses", course.GetList(storage))
	router.HandleFunc("GET /api/courses/by-name/{name}", course.GetByName(storage))
	router.HandleFunc("GET /api/courses/{id}", course.GetByID(storage))
	router.HandleFunc("PUT /api/courses/{id}", course.Update(storage))
	router.HandleFunc("DELETE /api/courses/{id}", course.Delete(storage))

	router.HandleFunc("POST /api/enrollments", course.Enroll(storage))

	router.HandleFunc("GET /api/snapshot", transfer.ExportSnapshot(storage))
	router.HandleFunc("POST /api/snapshot", transfer.ImportSnapshot(storage))
	router.HandleFunc("GET /api/export/csv", transfer.ExportCSV(storage))

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ListenAndServe blocks, so it runs in its own goroutine while main waits
	// for the shutdown signal below.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// In-flight requests get up to five seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment:
// human-readable text at DEBUG in dev, JSON for staging and prod.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
