// ABOUTME: Widget resource constants and the metadata block attached to MCP results.
// ABOUTME: The metadata ties tool results to the shopping cart widget rendered by the client.

package mcp

const (
	// WidgetURI identifies the shopping cart widget template resource.
	WidgetURI = "ui://widget/shopping-cart.html"
	// WidgetMIMEType marks the resource as a sandboxed HTML widget.
	WidgetMIMEType = "text/html+skybridge"
	// WidgetName is the human-readable resource name.
	WidgetName = "Start shopping cart"

	metaOutputTemplate   = "openai/outputTemplate"
	metaInvoking         = "openai/toolInvocation/invoking"
	metaInvoked          = "openai/toolInvocation/invoked"
	metaWidgetAccessible = "openai/widgetAccessible"
	metaWidgetSessionID  = "openai/widgetSessionId"
)

// Meta is the free-form `_meta` object carried by MCP results.
type Meta map[string]any

// widgetMeta returns the widget metadata. A non-empty cartID binds the result
// to that cart's widget session.
func widgetMeta(cartID string) Meta {
	m := Meta{
		metaOutputTemplate:   WidgetURI,
		metaInvoking:         "Preparing shopping cart",
		metaInvoked:          "Shopping cart ready",
		metaWidgetAccessible: true,
	}
	if cartID != "" {
		m[metaWidgetSessionID] = cartID
	}
	return m
}
