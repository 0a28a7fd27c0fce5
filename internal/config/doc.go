// Package config loads and validates the relay's YAML configuration.
//
// The file is optional; every value has a default and every value can be
// overridden by a command-line flag. Layout:
//
//	server:
//	  host: ""            # empty = all interfaces
//	  port: 8080
//	  idle_timeout: 60    # seconds without a frame before a session closes
//	logging:
//	  level: info         # diagnostic stream: debug, info, warn, error
//	  http: uri           # none, uri, uri-headers, uri-headers-body
//	  websocket: true     # per-frame streaming observation
//	metrics:
//	  addr: 127.0.0.1:9091  # empty disables the /metrics endpoint
//	discovery:
//	  announce: false
//	  instance: echorelay
package config
