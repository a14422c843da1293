package discovery

import "errors"

var (
	// ErrDiscoveryFailed is returned when neither broadcast nor any
	// candidate probe produced a topology.
	ErrDiscoveryFailed = errors.New("discovery: no speakers found")

	// ErrEmptyTopology marks a strategy that answered with no devices.
	ErrEmptyTopology = errors.New("discovery: empty topology")
)
