// Package cart holds shopping cart state.
//
// A cart is an ordered list of items keyed by name. Store keeps every cart in
// memory, sharded by cart id, and exposes replace (Put), merge (Add), generic
// read-modify-write (Update) and Remove. Merge implements aggregation: an
// incoming item whose name already exists increases that entry's quantity,
// anything else is appended.
package cart
