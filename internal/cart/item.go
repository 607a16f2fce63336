// ABOUTME: Cart item model with an open bag of extra fields flattened on the wire.
// ABOUTME: Handles quantity defaulting and name validation during JSON decoding.

package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// DefaultQuantity is applied when an incoming item omits "quantity".
const DefaultQuantity = 1

var (
	// ErrMissingName is returned when an item has no "name" field.
	ErrMissingName = errors.New("missing field `name`")
	// ErrEmptyName is returned when an item's name is the empty string.
	ErrEmptyName = errors.New("item name must not be empty")
)

// Item is a single line in a cart. Name is unique within a cart.
// Extra holds every other field the caller sent, kept as raw JSON so it
// round-trips byte for byte.
type Item struct {
	Name     string
	Quantity uint32
	Extra    map[string]json.RawMessage
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := Item{Name: i.Name, Quantity: i.Quantity}
	if len(i.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(i.Extra))
		for k, v := range i.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// UnmarshalJSON decodes an item, capturing unknown fields into Extra.
func (i *Item) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("item must be a JSON object")
	}

	rawName, ok := fields["name"]
	if !ok {
		return ErrMissingName
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil {
		return fmt.Errorf("invalid item name: %w", err)
	}
	if name == "" {
		return ErrEmptyName
	}

	quantity := uint32(DefaultQuantity)
	if rawQty, ok := fields["quantity"]; ok {
		if bytes.Equal(bytes.TrimSpace(rawQty), []byte("null")) {
			return fmt.Errorf("invalid quantity for %q: must be a non-negative integer, got null", name)
		}
		if err := json.Unmarshal(rawQty, &quantity); err != nil {
			return fmt.Errorf("invalid quantity for %q: %w", name, err)
		}
	}

	delete(fields, "name")
	delete(fields, "quantity")

	i.Name = name
	i.Quantity = quantity
	i.Extra = nil
	if len(fields) > 0 {
		i.Extra = fields
	}
	return nil
}

// MarshalJSON emits name and quantity first, then extra fields in key order.
func (i Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"name":`)
	name, err := json.Marshal(i.Name)
	if err != nil {
		return nil, err
	}
	buf.Write(name)
	fmt.Fprintf(&buf, `,"quantity":%d`, i.Quantity)

	keys := make([]string, 0, len(i.Extra))
	for k := range i.Extra {
		if k == "name" || k == "quantity" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value := i.Extra[k]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CloneItems deep-copies a slice of items. A nil input yields an empty,
// non-nil slice so it always encodes as [].
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for idx, item := range items {
		out[idx] = item.Clone()
	}
	return out
}
