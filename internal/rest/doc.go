// Package rest exposes the cart store to the widget frontend without JSON-RPC
// framing.
//
// # Endpoints
//
//   - POST /sync_cart: {"items": [...], "cartId": "..."} replaces the cart
//     wholesale and returns {"status": "updated", "cartId": "..."}
//   - POST /checkout: {"cartId": "..."} removes the cart if present and
//     returns {"status": "checked_out", "cartId": "..."}
//
// A missing cartId resolves to a freshly generated id. With session cookies
// enabled the id comes from the cart session cookie instead, and a request
// without that cookie is issued one so later calls reach the same cart.
//
// Malformed bodies return 400 with {"error": "..."}.
package rest
