package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AndreKoraleski/Mini-Net/address"
	"github.com/AndreKoraleski/Mini-Net/internal/errs"
)

// NodeConfig describes one participant sharing the demo's in-memory
// fabric: either a router with a static routing table, or a host
// reaching the rest of the fabric through a single gateway.
type NodeConfig struct {
	VIP      string            `json:"vip"`
	Kind     string            `json:"kind"` // "router" or "host"
	Gateway  string            `json:"gateway,omitempty"`
	Routes   map[string]string `json:"routes,omitempty"`
	DropProb float64           `json:"drop_prob,omitempty"`
}

func (n NodeConfig) vip() address.VIP { return address.VIP(n.VIP) }

// Topology is the demo binary's config file shape.
type Topology struct {
	Nodes []NodeConfig `json:"nodes"`
}

// LoadTopology reads and parses a topology file from path.
func LoadTopology(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, fmt.Errorf("reading topology file: %w", err)
	}

	var top Topology
	if err := json.Unmarshal(data, &top); err != nil {
		return Topology{}, fmt.Errorf("parsing topology file: %w", err)
	}

	var problems []error
	for _, n := range top.Nodes {
		if n.VIP == "" {
			problems = append(problems, errs.NewInvalidArgumentError("node with empty vip"))
			continue
		}
		switch n.Kind {
		case "router":
		case "host":
			if n.Gateway == "" {
				problems = append(problems, errs.NewInvalidArgumentError(fmt.Sprintf("host %q: missing gateway", n.VIP)))
			}
		default:
			problems = append(problems, errs.NewInvalidArgumentError(fmt.Sprintf("node %q: unknown kind %q", n.VIP, n.Kind)))
		}
	}
	if err := errs.JoinPrefix("invalid topology", problems...); err != nil {
		return Topology{}, err
	}
	return top, nil
}
