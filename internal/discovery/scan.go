package discovery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Ullaakut/nmap/v3"
)

// NmapScanner lists hosts on the configured ranges with the speaker
// control port open. It needs the nmap binary on PATH.
type NmapScanner struct {
	targets []string
	port    int
	timeout time.Duration
	logger  Logger
}

// NewNmapScanner creates a scanner over targets (CIDR ranges or addresses).
func NewNmapScanner(targets []string, port int, timeout time.Duration) *NmapScanner {
	return &NmapScanner{
		targets: targets,
		port:    port,
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for scan warnings.
func (s *NmapScanner) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	s.logger = l
}

// Candidates runs a TCP port scan and returns hosts with the port open,
// in nmap's output order.
func (s *NmapScanner) Candidates(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(ctx,
		nmap.WithTargets(s.targets...),
		nmap.WithPorts(strconv.Itoa(s.port)),
		nmap.WithSkipHostDiscovery(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating nmap scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("nmap scan: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		s.logger.Warn("nmap warnings", "warnings", *warnings)
	}
	return openHosts(result, s.port), nil
}

// openHosts extracts the address of every up host with port open,
// preferring IPv4.
func openHosts(result *nmap.Run, port int) []string {
	if result == nil {
		return nil
	}

	var hosts []string
	for _, h := range result.Hosts {
		if h.Status.State != "up" || len(h.Addresses) == 0 {
			continue
		}
		open := false
		for _, p := range h.Ports {
			if int(p.ID) == port && p.State.State == "open" {
				open = true
				break
			}
		}
		if !open {
			continue
		}

		addr := h.Addresses[0].Addr
		for _, a := range h.Addresses {
			if a.AddrType == "ipv4" {
				addr = a.Addr
				break
			}
		}
		hosts = append(hosts, addr)
	}
	return hosts
}
