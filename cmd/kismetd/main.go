package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kismetwireless/kismet-core/internal/datasource"
	"github.com/kismetwireless/kismet-core/internal/httpapi"
	"github.com/kismetwireless/kismet-core/internal/kismet"
)

const shutdownGrace = 5 * time.Second

// stringSliceFlag collects repeated -c flags (: "-c <source>
// repeatable overrides config-file sources").
type stringSliceFlag []string

func (s *stringSliceFlag) String() string { return fmt.Sprint([]string(*s)) }

func (s *stringSliceFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

var (
	sources        stringSliceFlag
	listen         = flag.String("listen", ":2501", "HTTP API listen address")
	configPath     = flag.String("config", "", "tuning config JSON path (defaults applied for anything unset)")
	dbPath         = flag.String("db", "kismet.db", "device name/tag sqlite database path")
	serverUUIDPath = flag.String("server-uuid-file", "kismet_server_uuid", "file persisting this server's identity UUID across restarts")
)

func init() {
	flag.Var(&sources, "c", "data source definition to open at startup (repeatable)")
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kctx, err := kismet.New(kismet.Options{
		ConfigPath:     *configPath,
		DatabasePath:   *dbPath,
		ServerUUIDPath: *serverUUIDPath,
	})
	if err != nil {
		log.Fatalf("kismetd: %v", err)
	}

	kctx.Sources.OpenAll(ctx, sources, func(raw string, ok bool, err error, src *datasource.Source) {
		if err != nil {
			log.Printf("kismetd: open source %q failed: %v", raw, err)
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		kctx.Run(ctx)
	}()

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: httpapi.LoggingMiddleware(kctx.HTTP.ServeMux()),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("kismetd: listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("kismetd: http server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("kismetd: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	kctx.Close()
	wg.Wait()

	os.Exit(0)
}
