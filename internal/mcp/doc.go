// Package mcp implements the Model Context Protocol endpoint for the shopping cart.
//
// # Protocol
//
// Requests are JSON-RPC 2.0 envelopes sent via HTTP POST to /mcp (also /mcp/
// and /). A GET on the same path returns a single Server-Sent Event naming the
// POST endpoint:
//
//	event: endpoint
//	data: /mcp
//
// Supported methods:
//
//   - initialize: handshake; opens a session returned in Mcp-Session-Id
//   - notifications/initialized, ping: empty result
//   - tools/list: the add_to_cart and checkout descriptors, in that order
//   - resources/list, resources/read: the shopping cart widget template
//   - resources/templates/list: always empty
//   - tools/call: runs a tool against the cart store
//
// Unknown methods return -32601. A body that is not JSON, has no method or is
// larger than MaxRequestBodySize returns -32700 with HTTP 400 and a null id.
// Tool failures return -32602 with HTTP 200.
//
// # Tools
//
// add_to_cart merges items into a cart, summing quantities by name:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/call",
//	  "params": {
//	    "name": "add_to_cart",
//	    "arguments": {"items": [{"name": "Apple", "quantity": 3}]}
//	  },
//	  "id": 2
//	}
//
// The result carries a text summary, a structuredContent object with cartId and
// items, and widget metadata bound to the cart id. checkout removes the cart and
// always reports an empty item list.
//
// # Sessions
//
// Sessions are bookkeeping only: requests without a known session id are still
// served. DELETE /mcp with Mcp-Session-Id ends a session.
package mcp
