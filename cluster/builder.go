package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cachecc/occ/internal/base"
	"github.com/cachecc/occ/toolchain"
)

// BuilderState is the state machine driving one Builder's lifecycle,
// expressed as the scoped-resource pattern: a listener handle, background
// task handles (announcer, acceptor), and a shared cancellation flag
// whose release contract sets the flag, closes the listener, and joins
// the tasks.
type BuilderState int32

const (
	StateStopped BuilderState = iota
	StateStarting
	StateReady
	StateStopping
)

func (s BuilderState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateReady:
		return "Ready"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// JobHandler runs one accepted job and produces a response. Supplied by
// the caller so this package stays agnostic of compile/cache wiring.
type JobHandler func(ctx context.Context, req JobRequest) (JobResponse, error)

// Builder is a long-running service: discovers toolchains at startup,
// announces itself once per second, and listens on a TCP socket for
// compile jobs, one job per connection.
type Builder struct {
	Name            string
	Version         string
	CoordinatorURL  string
	ListenAddr      string
	AnnouncePeriod  time.Duration
	Registry        *toolchain.Registry
	Families        []toolchain.Family
	Handler         JobHandler

	state    atomic.Int32
	done     atomic.Bool
	listener net.Listener
	wg       sync.WaitGroup

	httpClient *http.Client
}

func NewBuilder(name, version, coordinatorURL, listenAddr string, handler JobHandler, families ...toolchain.Family) *Builder {
	b := &Builder{
		Name:           name,
		Version:        version,
		CoordinatorURL: coordinatorURL,
		ListenAddr:     listenAddr,
		AnnouncePeriod: time.Second,
		Registry:       toolchain.NewRegistry(),
		Families:       families,
		Handler:        handler,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
	}
	b.state.Store(int32(StateStopped))
	return b
}

func (b *Builder) State() BuilderState { return BuilderState(b.state.Load()) }

// Start transitions Stopped -> Starting -> Ready: runs toolchain
// discovery, binds the listener, then spawns the acceptor and announcer
// background tasks.
func (b *Builder) Start(ctx context.Context) error {
	b.state.Store(int32(StateStarting))
	b.done.Store(false)

	if err := b.Registry.Discover(ctx, b.Families...); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", b.ListenAddr)
	if err != nil {
		b.state.Store(int32(StateStopped))
		return err
	}
	b.listener = listener

	b.wg.Add(2)
	go b.acceptLoop()
	go b.announceLoop(ctx)

	b.state.Store(int32(StateReady))
	base.LogInfo(log, "builder %s ready, listening on %s", b.Name, listener.Addr())
	return nil
}

// Reload re-runs toolchain discovery without dropping the listener, so
// in-flight and newly accepted connections are unaffected by a reload.
func (b *Builder) Reload(ctx context.Context) error {
	return b.Registry.Discover(ctx, b.Families...)
}

// Stop transitions through Stopping to Stopped: sets the cancellation
// flag, closes the listener so the acceptor loop unblocks, then joins
// both background tasks before returning. In-flight jobs are not
// individually joined; they exit when their connection closes.
func (b *Builder) Stop() {
	b.state.Store(int32(StateStopping))
	b.done.Store(true)
	if b.listener != nil {
		b.listener.Close()
	}
	b.wg.Wait()
	b.state.Store(int32(StateStopped))
}

func (b *Builder) acceptLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			if b.done.Load() {
				return
			}
			base.LogWarning(log, "accept error: %v", err)
			continue
		}
		go b.handleConnection(conn)
	}
}

func (b *Builder) handleConnection(conn net.Conn) {
	defer conn.Close()

	req, err := ReadJobRequest(conn)
	if err != nil {
		base.LogWarning(log, "malformed job request from %s: %v", conn.RemoteAddr(), err)
		return
	}

	resp, err := b.Handler(context.Background(), req)
	if err != nil {
		base.LogWarning(log, "job handler error: %v", err)
		resp = JobResponse{Status: 1, Stderr: []byte(err.Error())}
	}

	if err := WriteJobResponse(conn, resp); err != nil {
		base.LogWarning(log, "failed writing job response: %v", err)
	}
}

func (b *Builder) announceLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(b.AnnouncePeriod)
	defer ticker.Stop()

	for {
		if b.done.Load() {
			return
		}
		if err := b.announce(ctx); err != nil {
			base.LogWarning(log, "announce failed: %v", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
		if b.done.Load() {
			return
		}
	}
}

func (b *Builder) announce(ctx context.Context) error {
	hw, err := CurrentHardware(ctx)
	if err != nil {
		base.LogWarning(log, "hardware snapshot failed: %v", err)
	}

	update := BuilderInfoUpdate{Info: BuilderInfo{
		Name:       b.Name,
		Version:    b.Version,
		Endpoint:   b.listener.Addr().String(),
		Toolchains: b.Registry.Identifiers(),
		Hardware:   hw,
	}}

	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	url := b.CoordinatorURL + "/rpc/v1/builder/update"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("coordinator returned %s", resp.Status)
	}
	return nil
}
