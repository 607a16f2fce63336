// ABOUTME: Tool descriptors and the tool router for add_to_cart and checkout.
// ABOUTME: Input schemas are reflected from Go types; results carry widget metadata.

package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/2389/cart-gateway/internal/cart"
)

// Tool names
const (
	AddToCartTool = "add_to_cart"
	CheckoutTool  = "checkout"
)

const emptyCartText = "Cart is empty."

// ToolInfo is a tools/list descriptor.
type ToolInfo struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Meta        Meta            `json:"_meta"`
}

// Content is a single content block in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CartState is the structured payload returned by both tools.
type CartState struct {
	CartID   string      `json:"cartId"`
	Items    []cart.Item `json:"items"`
	Checkout bool        `json:"checkout,omitempty"`
}

// ToolResult is the tools/call result.
type ToolResult struct {
	Content           []Content `json:"content"`
	StructuredContent CartState `json:"structuredContent"`
	Meta              Meta      `json:"_meta"`

	// Receipt is the checkout summary when a cart was actually checked out.
	Receipt string `json:"-"`
}

// ToolError is a tool-call failure reported as a JSON-RPC error.
type ToolError struct {
	Code    int
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

func invalidArguments(err error) *ToolError {
	return &ToolError{Code: JSONRPCInvalidParams, Message: "Invalid arguments: " + err.Error()}
}

var errMissingItems = errors.New("missing field `items`")

// Schema-only mirrors of the tool inputs. Decoding uses the wire types below.
type addToCartSchema struct {
	Items  []itemSchema `json:"items"`
	CartID string       `json:"cartId,omitempty"`
}

type itemSchema struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity,omitempty" jsonschema:"default=1"`
}

type checkoutSchema struct {
	CartID string `json:"cartId,omitempty"`
}

type addToCartArgs struct {
	Items  []cart.Item `json:"items"`
	CartID string      `json:"cartId"`
}

type checkoutArgs struct {
	CartID string `json:"cartId"`
}

// Tools routes tools/call requests to the cart store.
type Tools struct {
	store       *cart.Store
	descriptors []ToolInfo
}

// NewTools builds the tool descriptors and returns a router over store.
func NewTools(store *cart.Store) (*Tools, error) {
	if store == nil {
		return nil, errors.New("cart store is required")
	}

	addSchema, err := reflectSchema(&addToCartSchema{}, func(s *jsonschema.Schema) {
		items, ok := s.Properties.Get("items")
		if !ok || items.Items == nil {
			return
		}
		// Items may carry arbitrary extra fields.
		items.Items.AdditionalProperties = jsonschema.TrueSchema
	})
	if err != nil {
		return nil, fmt.Errorf("building %s schema: %w", AddToCartTool, err)
	}

	checkoutSchemaJSON, err := reflectSchema(&checkoutSchema{}, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s schema: %w", CheckoutTool, err)
	}

	return &Tools{
		store: store,
		descriptors: []ToolInfo{
			{
				Name:        AddToCartTool,
				Title:       "Add items to cart",
				Description: "Adds the provided items to the active cart and returns its state.",
				InputSchema: addSchema,
			},
			{
				Name:        CheckoutTool,
				Title:       "Checkout",
				Description: "Checks out the current cart, clearing it and returning a receipt.",
				InputSchema: checkoutSchemaJSON,
			},
		},
	}, nil
}

// reflectSchema produces an inlined JSON schema for v. Struct schemas reject
// unknown properties unless adjust says otherwise.
func reflectSchema(v any, adjust func(*jsonschema.Schema)) (json.RawMessage, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""
	if adjust != nil {
		adjust(schema)
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns the tool descriptors in a fixed order.
func (t *Tools) List() []ToolInfo {
	out := make([]ToolInfo, len(t.descriptors))
	for i, d := range t.descriptors {
		d.Meta = widgetMeta("")
		out[i] = d
	}
	return out
}

// Call runs the named tool. Failures are *ToolError values.
func (t *Tools) Call(name string, args json.RawMessage) (*ToolResult, error) {
	switch name {
	case AddToCartTool:
		return t.addToCart(args)
	case CheckoutTool:
		return t.checkout(args)
	default:
		return nil, &ToolError{Code: JSONRPCInvalidParams, Message: "Unknown tool: " + name}
	}
}

func (t *Tools) addToCart(raw json.RawMessage) (*ToolResult, error) {
	var args addToCartArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, invalidArguments(err)
	}
	if args.Items == nil {
		return nil, invalidArguments(errMissingItems)
	}

	cartID, items, err := t.store.Add(args.CartID, args.Items)
	if err != nil {
		return nil, invalidArguments(err)
	}

	return &ToolResult{
		Content: []Content{{
			Type: "text",
			Text: fmt.Sprintf("Cart %s now has %d item(s).", cartID, len(items)),
		}},
		StructuredContent: CartState{CartID: cartID, Items: items},
		Meta:              widgetMeta(cartID),
	}, nil
}

func (t *Tools) checkout(raw json.RawMessage) (*ToolResult, error) {
	var args checkoutArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, invalidArguments(err)
	}

	cartID, items, existed := t.store.Remove(args.CartID)

	text := emptyCartText
	var receipt string
	if existed && len(items) > 0 {
		receipt = cart.Summary(items)
		text = "Checked out now: " + receipt
	}

	return &ToolResult{
		Content:           []Content{{Type: "text", Text: text}},
		StructuredContent: CartState{CartID: cartID, Items: []cart.Item{}, Checkout: true},
		Meta:              widgetMeta(cartID),
		Receipt:           receipt,
	}, nil
}

// decodeArgs decodes a tool's arguments object, rejecting unknown fields.
// Absent or null arguments decode as an empty object.
func decodeArgs(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	if raw[0] != '{' {
		return errors.New("arguments must be a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
