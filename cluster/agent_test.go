package cluster

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentAnnouncesToCoordinator(t *testing.T) {
	coord := NewCoordinator(time.Second)
	srv := httptest.NewServer(coord.Router())
	defer srv.Close()

	agent := NewAgent("agent-1", srv.URL, "127.0.0.1:0", []string{"10.0.0.5:9100"}, nil)
	agent.AnnouncePeriod = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, agent.Start(ctx))
	defer agent.Stop()

	require.Eventually(t, func() bool {
		return len(coord.Builders()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestAgentRelaysAcceptedJob(t *testing.T) {
	coord := NewCoordinator(time.Second)
	srv := httptest.NewServer(coord.Router())
	defer srv.Close()

	relay := func(ctx context.Context, req JobRequest) (JobResponse, error) {
		return JobResponse{Status: 0, Stdout: []byte("relayed: " + req.ToolchainID)}, nil
	}
	agent := NewAgent("agent-1", srv.URL, "127.0.0.1:0", nil, relay)
	agent.AnnouncePeriod = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, agent.Start(ctx))
	defer agent.Stop()

	client := NewClient(srv.URL)
	resp, err := client.runJob(ctx, agent.listener.Addr().String(), JobRequest{ToolchainID: "clang-18"})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), resp.Status)
	assert.Equal(t, "relayed: clang-18", string(resp.Stdout))
}
