// ABOUTME: Cart aggregation rules and human-readable summaries.
// ABOUTME: Merge sums quantities by item name and appends unseen items in order.

package cart

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// ErrQuantityOverflow is returned when summing quantities would exceed the
// largest representable quantity.
var ErrQuantityOverflow = errors.New("quantity overflow")

// Merge folds incoming into a copy of existing and returns the result. Items
// whose name already exists get their quantity increased; the existing entry
// keeps its position and extra fields and the incoming extras are dropped. New
// names are appended in input order. existing is never modified, so on error
// the caller still holds the untouched cart.
func Merge(existing, incoming []Item) ([]Item, error) {
	out := CloneItems(existing)
	for _, in := range incoming {
		found := false
		for idx := range out {
			if out[idx].Name != in.Name {
				continue
			}
			if out[idx].Quantity > math.MaxUint32-in.Quantity {
				return nil, fmt.Errorf("%w for %q", ErrQuantityOverflow, in.Name)
			}
			out[idx].Quantity += in.Quantity
			found = true
			break
		}
		if !found {
			out = append(out, in.Clone())
		}
	}
	return out, nil
}

// Summary renders items as "2x Apple, 1x Banana".
func Summary(items []Item) string {
	parts := make([]string, len(items))
	for idx, item := range items {
		parts[idx] = fmt.Sprintf("%dx %s", item.Quantity, item.Name)
	}
	return strings.Join(parts, ", ")
}

// NewID returns a fresh opaque cart identifier (32 lowercase hex characters).
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
