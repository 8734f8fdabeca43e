package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cachecc/occ/cluster"
	"github.com/cachecc/occ/internal/base"
	"github.com/cachecc/occ/toolchain"
	"github.com/google/uuid"
)

// runCoordinator starts the registry HTTP service and blocks until the
// host supervisor sends SIGINT/SIGTERM.
func runCoordinator(args []string) error {
	fs := flag.NewFlagSet("coordinator", flag.ExitOnError)
	listenAddr := fs.String("listen", ":9090", "coordinator HTTP listen address")
	announcePeriod := fs.Duration("announce-period", time.Second, "expected builder announcement period")
	if err := fs.Parse(args); err != nil {
		return err
	}

	coord := cluster.NewCoordinator(*announcePeriod)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go coord.RunSweeper(*announcePeriod, ctx.Done())

	server := &http.Server{Addr: *listenAddr, Handler: coord.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	base.LogInfo(log, "coordinator listening on %s", *listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// runBuilder drives one Builder through Start -> (serve) -> Stop, on
// signals delivered by the host supervisor.
func runBuilder(args []string) error {
	fs := flag.NewFlagSet("builder", flag.ExitOnError)
	coordinatorURL := fs.String("coordinator", "http://127.0.0.1:9090", "coordinator base URL")
	listenAddr := fs.String("listen", ":9091", "builder TCP listen address")
	name := fs.String("name", hostnameOrDefault(), "builder identity announced to the coordinator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	builder := cluster.NewBuilder(*name, "1.0", *coordinatorURL, *listenAddr, handleBuilderJob,
		toolchain.MsvcFamily{}, toolchain.ClangFamily{})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := builder.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	builder.Stop()
	return nil
}

// runAgent drives one Agent through Start -> (relay) -> Stop. It accepts
// jobs the same way a Builder does but has no local toolchain: every
// accepted job is re-dispatched to a builder fetched from the
// coordinator, acting as a stepping-stone for clients that can only
// reach this agent directly.
func runAgent(args []string) error {
	fs := flag.NewFlagSet("agent", flag.ExitOnError)
	coordinatorURL := fs.String("coordinator", "http://127.0.0.1:9090", "coordinator base URL")
	listenAddr := fs.String("listen", ":9092", "agent TCP listen address")
	endpoint := fs.String("endpoint", "", "reachable endpoint this agent relays through")
	name := fs.String("name", hostnameOrDefault(), "agent identity announced to the coordinator")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := cluster.NewClient(*coordinatorURL)
	relay := func(ctx context.Context, req cluster.JobRequest) (cluster.JobResponse, error) {
		return client.Dispatch(ctx, req.ToolchainID, req)
	}

	agent := cluster.NewAgent(*name, *coordinatorURL, *listenAddr, []string{*endpoint}, relay)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := agent.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	agent.Stop()
	return nil
}

// hostnameOrDefault builds a default builder/agent identity from the
// host's name plus a short random suffix, so two peers started on the
// same host (e.g. in a container test fleet) announce distinct names.
// The coordinator keys registrations by endpoint, not by name, so the
// suffix does not keep two peers announcing one endpoint apart.
func hostnameOrDefault() string {
	host := "occ-peer"
	if h, err := os.Hostname(); err == nil {
		host = h
	}
	return host + "-" + uuid.New().String()[:8]
}
