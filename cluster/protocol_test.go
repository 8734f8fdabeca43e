package cluster

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRequestRoundTrip(t *testing.T) {
	req := JobRequest{ToolchainID: "msvc-19.38", Args: "/DTEST /arch:AVX", Source: []byte("int main(){}")}

	var buf bytes.Buffer
	require.NoError(t, WriteJobRequest(&buf, req))

	got, err := ReadJobRequest(&buf)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestJobResponseRoundTrip(t *testing.T) {
	resp := JobResponse{
		Status:  0,
		Stdout:  []byte("compiling\n"),
		Stderr:  []byte(""),
		Outputs: [][]byte{[]byte("obj bytes"), {}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJobResponse(&buf, resp))

	got, err := ReadJobResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, resp.Status, got.Status)
	assert.Equal(t, resp.Stdout, got.Stdout)
	assert.Equal(t, resp.Stderr, got.Stderr)
	require.Len(t, got.Outputs, 2)
	assert.Equal(t, resp.Outputs[0], got.Outputs[0])
	assert.Empty(t, got.Outputs[1])
}

func TestJobResponseZeroOutputs(t *testing.T) {
	resp := JobResponse{Status: 1, Stdout: []byte(""), Stderr: []byte("error: bogus.h not found")}

	var buf bytes.Buffer
	require.NoError(t, WriteJobResponse(&buf, resp))

	got, err := ReadJobResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.Status)
	assert.Empty(t, got.Outputs)
}

func TestReadJobRequestTruncatedStreamIsProtocolError(t *testing.T) {
	buf := bytes.NewBufferString("\x05\x00\x00\x00abc") // length prefix claims 5 bytes, body truncated
	_, err := ReadJobRequest(buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}
