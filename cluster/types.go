package cluster

import "time"

// Hardware is a point-in-time snapshot of the host a builder runs on,
// stored by the coordinator as part of the registration and returned
// unchanged to clients listing builders.
type Hardware struct {
	Arch          string  `json:"arch"`
	CpuName       string  `json:"cpu_name"`
	Cores         int32   `json:"cores"`
	Threads       int32   `json:"threads"`
	VirtualMemory uint64  `json:"virtual_memory"`
	CpuPercent    float64 `json:"cpu_percent"`
}

// BuilderInfo is what a builder announces to the coordinator: its
// identity, reachable endpoint, the toolchains it can compile with, and
// its current hardware snapshot.
type BuilderInfo struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Endpoint   string   `json:"endpoint"`
	Toolchains []string `json:"toolchains"`
	Hardware   Hardware `json:"hardware"`
}

// AgentInfo is the stripped variant an Agent announces: no toolchain
// list, since agents relay rather than compile.
type AgentInfo struct {
	Name      string   `json:"name"`
	Endpoints []string `json:"endpoints"`
}

// BuilderInfoUpdate wraps one announcement POST body.
type BuilderInfoUpdate struct {
	Info BuilderInfo `json:"info"`
}

// AgentInfoUpdate wraps one agent announcement POST body.
type AgentInfoUpdate struct {
	Info AgentInfo `json:"info"`
}

// registration is the coordinator's internal bookkeeping entry: the last
// announcement received plus when it arrived, for expiry sweeping.
type registration struct {
	Info     BuilderInfo
	LastSeen time.Time
}
