// Package config loads client settings for endpoint discovery and requests.
//
// # Overview
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, ~/.config/assistant/config.toml unless a path is given
//  3. Environment variables
//
// A missing file is not an error. A malformed file is.
//
// # TOML Format
//
//	public_base_url   = "relay.example.com"
//	service_port      = 8000
//	emulator_host     = "10.0.2.2"
//	fallback_host     = "192.168.1.2"
//	well_known_hosts  = [2, 10, 11, 20, 50, 100, 101, 110, 120, 150, 200]
//	subnet_prefix     = "192.168.1"   # skip interface detection
//	discovery_timeout = "700ms"
//	confirm_timeout   = "15s"
//	request_timeout   = "30s"
//	sweep_deadline    = "8s"
//	sweep_workers     = 24
//	cache_path        = "~/.config/assistant/endpoint.toml"
//	log_level         = "info"
//	log_format        = "console"   # or "json"
//	version_code      = 8
//
// Every field is optional. Durations use Go syntax. Tilde expansion is
// applied to cache_path.
//
// # Public Base URL
//
// The public relay URL is normalized on load: surrounding whitespace and
// trailing slashes are removed and https:// is assumed when no scheme is
// given. A blank value disables the public tier.
//
// # Environment
//
//   - ASSISTANT_PUBLIC_BASE_URL (CLOUDFLARE_PUBLIC_BASE_URL is honored when unset)
//   - ASSISTANT_SERVICE_PORT
//   - ASSISTANT_SUBNET_PREFIX
//   - ASSISTANT_DISCOVERY_TIMEOUT, ASSISTANT_SWEEP_DEADLINE
//   - ASSISTANT_CACHE_PATH
//   - ASSISTANT_LOG_LEVEL, ASSISTANT_LOG_FORMAT
package config
