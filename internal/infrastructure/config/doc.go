// Package config handles loading and validating Gray Logic Audio configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The discovery section is inherently environment-specific: the ordered
// fallback host list names speakers that answer unicast probes when
// multicast discovery is unavailable (VPN overlays, segmented Wi-Fi).
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Discovery.FallbackHosts)
package config
