package cluster

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorBuilderUpdateAndList(t *testing.T) {
	coord := NewCoordinator(time.Second)
	srv := httptest.NewServer(coord.Router())
	defer srv.Close()

	update := BuilderInfoUpdate{Info: BuilderInfo{
		Name: "builder-1", Version: "1.0", Endpoint: "10.0.0.1:9000", Toolchains: []string{"msvc-19.38"},
	}}
	body, err := json.Marshal(update)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/rpc/v1/builder/update", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/rpc/v1/builders")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var builders []BuilderInfo
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&builders))
	require.Len(t, builders, 1)
	assert.Equal(t, "builder-1", builders[0].Name)
}

func TestCoordinatorSweepExpiresStaleRegistrations(t *testing.T) {
	coord := NewCoordinator(time.Millisecond)
	coord.upsert("stale:9000", BuilderInfo{Name: "stale"})

	time.Sleep(10 * time.Millisecond)
	coord.Sweep()

	assert.Empty(t, coord.Builders())
}

func TestCoordinatorAgentUpdate(t *testing.T) {
	coord := NewCoordinator(time.Second)
	srv := httptest.NewServer(coord.Router())
	defer srv.Close()

	update := AgentInfoUpdate{Info: AgentInfo{Name: "agent-1", Endpoints: []string{"10.0.0.2:9001"}}}
	body, err := json.Marshal(update)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/rpc/v1/agent/update", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Len(t, coord.Builders(), 1)
}
