package cluster

import (
	"context"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startFakeBuilder(t *testing.T, status uint32) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		if _, err := ReadJobRequest(conn); err != nil {
			return
		}
		_ = WriteJobResponse(conn, JobResponse{Status: status, Stdout: []byte("done")})
	}()
	return ln
}

func TestDispatchRetriesOnFailureThenSucceeds(t *testing.T) {
	coord := NewCoordinator(time.Second)
	srv := httptest.NewServer(coord.Router())
	defer srv.Close()

	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := dead.Addr().String()
	dead.Close() // nothing listens here anymore: connection refused

	good := startFakeBuilder(t, 0)
	defer good.Close()

	coord.upsert(deadAddr, BuilderInfo{Name: "dead", Endpoint: deadAddr, Toolchains: []string{"msvc-19.38"}})
	coord.upsert(good.Addr().String(), BuilderInfo{Name: "good", Endpoint: good.Addr().String(), Toolchains: []string{"msvc-19.38"}})

	client := NewClient(srv.URL)
	resp, err := client.Dispatch(context.Background(), "msvc-19.38", JobRequest{ToolchainID: "msvc-19.38"})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), resp.Status)
}

func TestDispatchNoMatchingToolchain(t *testing.T) {
	coord := NewCoordinator(time.Second)
	srv := httptest.NewServer(coord.Router())
	defer srv.Close()

	coord.upsert("10.0.0.1:9000", BuilderInfo{Name: "b1", Toolchains: []string{"clang-17"}})

	client := NewClient(srv.URL)
	_, err := client.Dispatch(context.Background(), "msvc-19.38", JobRequest{})
	require.Error(t, err)
}
