// Command server runs a standalone upload server with an example route
// registry. Embedding hosts normally mount server.Handler() inside their
// own application instead.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uploadthing/uploadthing-go/config"
	"github.com/uploadthing/uploadthing-go/internal/logging"
	"github.com/uploadthing/uploadthing-go/router"
	"github.com/uploadthing/uploadthing-go/server"
)

func main() {
	if err := run(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := logging.NewZerolog(os.Stdout, cfg.Level())

	reg, err := router.NewRegistry(exampleRoutes())
	if err != nil {
		return err
	}

	srv, err := server.New(reg, cfg, server.WithLogger(logger))
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Mount("/api/uploadthing", srv.Handler())

	httpSrv := &http.Server{Addr: ":3210", Handler: r}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "listening", "addr", httpSrv.Addr, "dev", cfg.IsDev)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	// join detached tasks before exiting under the await policy
	srv.Wait()
	return nil
}

func exampleRoutes() map[string]*router.Route {
	return map[string]*router.Route{
		"avatar": router.NewRoute(map[router.FileType]router.TypeConfig{
			router.TypeImage: {MaxFileSize: 4 << 20, MaxFileCount: 1},
		}).WithMiddleware(func(ctx context.Context, req *router.MiddlewareRequest) (*router.MiddlewareResult, error) {
			return &router.MiddlewareResult{Metadata: map[string]any{"uploadedBy": "demo"}}, nil
		}).OnComplete(func(ctx context.Context, file *router.CompletedFile, metadata map[string]any) (any, error) {
			return map[string]string{"fileUrl": file.URL}, nil
		}),

		"documents": router.NewRoute(map[router.FileType]router.TypeConfig{
			router.TypePDF:  {MaxFileSize: 16 << 20, MaxFileCount: 10},
			router.TypeText: {MaxFileSize: 1 << 20, MaxFileCount: 10},
		}).WithOptions(router.Options{
			URLTTL:          30 * time.Minute,
			AwaitServerData: true,
		}),
	}
}
