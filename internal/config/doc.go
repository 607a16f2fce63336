// Package config handles configuration loading for cart-gateway.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. A missing file is not an error: Default() values apply.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from CART_GATEWAY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/cart-gateway/config.yaml
//  3. ~/.config/cart-gateway/config.yaml
//
// # Environment Variables
//
// Values can reference environment variables with ${VAR_NAME}. After the
// file is parsed, PORT replaces the port of server.http_addr and ASSETS_DIR
// replaces assets.dir.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	mcp:
//	  session_ttl: "30m"
package config
