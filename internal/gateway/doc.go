// Package gateway assembles the cart-gateway HTTP server.
//
// # Overview
//
// The Gateway owns the single cart store shared by the MCP endpoint and the
// REST API, the MCP session registry and the HTTP server.
//
// # Routes
//
//   - POST|GET|DELETE /mcp, /mcp/ and / - MCP endpoint (see package mcp)
//   - POST /sync_cart - overwrite a cart (see package rest)
//   - POST /checkout - remove a cart
//   - GET /health - liveness check
//   - GET /assets/... - widget build output with cache headers
//
// # Middleware
//
// Every request passes through request logging and then a permissive CORS
// layer. OPTIONS requests are answered by the CORS layer with 204 before
// routing.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return gw.Run(ctx) // blocks until ctx is canceled
//
// Shutdown waits up to server.shutdown_timeout for in-flight requests.
package gateway
