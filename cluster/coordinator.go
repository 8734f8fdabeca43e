package cluster

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cachecc/occ/internal/base"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

var log = base.NewLogCategory("Cluster")

// ExpiryMultiple is how many announcement periods a registration
// survives without a refresh before the sweep drops it.
const ExpiryMultiple = 2

// Coordinator holds the single in-memory registry of live builders, keyed
// by endpoint so each builder owns its own key. One RWMutex guards the
// whole map: writes take it exclusively, reads share it.
type Coordinator struct {
	mu             sync.RWMutex
	registrations  map[string]registration
	announcePeriod time.Duration
}

func NewCoordinator(announcePeriod time.Duration) *Coordinator {
	return &Coordinator{
		registrations:  make(map[string]registration),
		announcePeriod: announcePeriod,
	}
}

func (c *Coordinator) upsert(endpoint string, info BuilderInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations[endpoint] = registration{Info: info, LastSeen: time.Now()}
}

// Builders returns every non-expired registration, the response body for
// GET /rpc/v1/builders.
func (c *Coordinator) Builders() []BuilderInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry := c.announcePeriod * ExpiryMultiple
	now := time.Now()
	out := make([]BuilderInfo, 0, len(c.registrations))
	for _, reg := range c.registrations {
		if now.Sub(reg.LastSeen) <= expiry {
			out = append(out, reg.Info)
		}
	}
	return out
}

// Sweep drops registrations that haven't refreshed within the expiry
// window. Intended to run on a ticker from the caller's goroutine, kept
// separate from the read path so GET requests never pay for eviction.
func (c *Coordinator) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry := c.announcePeriod * ExpiryMultiple
	now := time.Now()
	for endpoint, reg := range c.registrations {
		if now.Sub(reg.LastSeen) > expiry {
			delete(c.registrations, endpoint)
			base.LogVerbose(log, "expired stale registration for %s", endpoint)
		}
	}
}

// RunSweeper blocks, sweeping on every tick of period until ctx-like done
// is closed. The caller is expected to run this in its own goroutine,
// mirroring the builder's own announcer-thread contract.
func (c *Coordinator) RunSweeper(period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Router builds the coordinator's HTTP surface: the three RPC endpoints
// plus permissive CORS so browser-based dashboards can poll the builder
// list directly.
func (c *Coordinator) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Post("/rpc/v1/builder/update", c.handleBuilderUpdate)
	r.Post("/rpc/v1/agent/update", c.handleAgentUpdate)
	r.Get("/rpc/v1/builders", c.handleListBuilders)
	return r
}

func (c *Coordinator) handleBuilderUpdate(w http.ResponseWriter, r *http.Request) {
	var update BuilderInfoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.upsert(update.Info.Endpoint, update.Info)
	w.WriteHeader(http.StatusNoContent)
}

func (c *Coordinator) handleAgentUpdate(w http.ResponseWriter, r *http.Request) {
	var update AgentInfoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endpoint := ""
	if len(update.Info.Endpoints) > 0 {
		endpoint = update.Info.Endpoints[0]
	}
	c.upsert(endpoint, BuilderInfo{Name: update.Info.Name, Endpoint: endpoint})
	w.WriteHeader(http.StatusNoContent)
}

func (c *Coordinator) handleListBuilders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c.Builders()); err != nil {
		base.LogError(log, "encoding builder list: %v", err)
	}
}
