package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/cachecc/occ/internal/base"
)

// maxBuilderRetries bounds how many distinct builders a client will try
// for one job before falling back to local execution.
const maxBuilderRetries = 3

// Client is what a local invocation uses to discover and dispatch a job
// to a remote builder when it decides to offload a translation unit.
type Client struct {
	CoordinatorURL string
	httpClient     *http.Client
	dialTimeout    time.Duration
}

func NewClient(coordinatorURL string) *Client {
	return &Client{
		CoordinatorURL: coordinatorURL,
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		dialTimeout:    5 * time.Second,
	}
}

// Builders fetches the coordinator's current registration list.
func (c *Client) Builders(ctx context.Context) ([]BuilderInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.CoordinatorURL+"/rpc/v1/builders", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var builders []BuilderInfo
	if err := json.NewDecoder(resp.Body).Decode(&builders); err != nil {
		return nil, err
	}
	return builders, nil
}

// Dispatch picks builders offering toolchainID at random, retrying
// against a fresh one (up to maxBuilderRetries) whenever the prior
// attempt fails for any reason (dial failure or protocol error). Returns an error if every
// candidate failed; the caller is expected to fall back to local
// compilation in that case.
func (c *Client) Dispatch(ctx context.Context, toolchainID string, req JobRequest) (JobResponse, error) {
	builders, err := c.Builders(ctx)
	if err != nil {
		return JobResponse{}, err
	}

	candidates := filterByToolchain(builders, toolchainID)
	if len(candidates) == 0 {
		return JobResponse{}, fmt.Errorf("cluster: no builder offers toolchain %q", toolchainID)
	}

	rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

	attempts := len(candidates)
	if attempts > maxBuilderRetries {
		attempts = maxBuilderRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := c.runJob(ctx, candidates[i].Endpoint, req)
		if err == nil {
			return resp, nil
		}
		base.LogWarning(log, "job against builder %s failed: %v", candidates[i].Endpoint, err)
		lastErr = err
	}
	return JobResponse{}, fmt.Errorf("cluster: all builders failed, last error: %w", lastErr)
}

func filterByToolchain(builders []BuilderInfo, toolchainID string) []BuilderInfo {
	var out []BuilderInfo
	for _, b := range builders {
		for _, t := range b.Toolchains {
			if t == toolchainID {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

func (c *Client) runJob(ctx context.Context, endpoint string, req JobRequest) (JobResponse, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return JobResponse{}, err
	}
	defer conn.Close()

	if err := WriteJobRequest(conn, req); err != nil {
		return JobResponse{}, err
	}
	return ReadJobResponse(conn)
}
