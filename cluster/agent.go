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
)

// Agent is the lighter stepping-stone variant: it announces only a name
// and reachable endpoints, no toolchain list, and otherwise mirrors a
// Builder's job-accept semantics — it just relays rather than compiling
// locally.
type Agent struct {
	Name           string
	Endpoints      []string
	CoordinatorURL string
	ListenAddr     string
	AnnouncePeriod time.Duration
	Relay          JobHandler

	done     atomic.Bool
	listener net.Listener
	wg       sync.WaitGroup

	httpClient *http.Client
}

func NewAgent(name, coordinatorURL, listenAddr string, endpoints []string, relay JobHandler) *Agent {
	return &Agent{
		Name:           name,
		Endpoints:      endpoints,
		CoordinatorURL: coordinatorURL,
		ListenAddr:     listenAddr,
		AnnouncePeriod: time.Second,
		Relay:          relay,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Start binds the relay listener and spawns the acceptor and announce
// background tasks, mirroring Builder.Start.
func (a *Agent) Start(ctx context.Context) error {
	a.done.Store(false)

	listener, err := net.Listen("tcp", a.ListenAddr)
	if err != nil {
		return err
	}
	a.listener = listener

	a.wg.Add(2)
	go a.acceptLoop()
	go a.announceLoop(ctx)

	base.LogInfo(log, "agent %s ready, relaying on %s", a.Name, listener.Addr())
	return nil
}

// Stop closes the listener so the acceptor unblocks, then joins both
// background tasks before returning. In-flight relays are not
// individually joined; they exit when their connection closes.
func (a *Agent) Stop() {
	a.done.Store(true)
	if a.listener != nil {
		a.listener.Close()
	}
	a.wg.Wait()
}

func (a *Agent) acceptLoop() {
	defer a.wg.Done()
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if a.done.Load() {
				return
			}
			base.LogWarning(log, "agent accept error: %v", err)
			continue
		}
		go a.handleConnection(conn)
	}
}

func (a *Agent) handleConnection(conn net.Conn) {
	defer conn.Close()

	req, err := ReadJobRequest(conn)
	if err != nil {
		base.LogWarning(log, "malformed job request from %s: %v", conn.RemoteAddr(), err)
		return
	}

	var resp JobResponse
	if a.Relay == nil {
		resp = JobResponse{Status: 1, Stderr: []byte("agent has no relay target configured")}
	} else if resp, err = a.Relay(context.Background(), req); err != nil {
		base.LogWarning(log, "relay failed: %v", err)
		resp = JobResponse{Status: 1, Stderr: []byte(err.Error())}
	}

	if err := WriteJobResponse(conn, resp); err != nil {
		base.LogWarning(log, "failed writing job response: %v", err)
	}
}

func (a *Agent) announceLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.AnnouncePeriod)
	defer ticker.Stop()

	for {
		if a.done.Load() {
			return
		}
		if err := a.announce(ctx); err != nil {
			base.LogWarning(log, "agent announce failed: %v", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
		if a.done.Load() {
			return
		}
	}
}

func (a *Agent) announce(ctx context.Context) error {
	update := AgentInfoUpdate{Info: AgentInfo{Name: a.Name, Endpoints: a.Endpoints}}
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	url := a.CoordinatorURL + "/rpc/v1/agent/update"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("coordinator returned %s", resp.Status)
	}
	return nil
}
