// Package session tracks MCP client sessions in a TTL-bounded, size-limited
// registry. Sessions expire after a period without traffic; when the registry
// is full the least recently touched session is evicted.
package session
