package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/safar/storefront/internal/models"
)

// IdempotencyKey derives a stable key from the user and the cart contents.
// Line order does not matter; any change to a product, quantity or price
// produces a new key.
func IdempotencyKey(userID string, lines []models.CartLine) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%s:%d:%s", line.ProductID, line.Quantity, line.Price.StringFixed(2)))
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte(userID))
	for _, p := range parts {
		h.Write([]byte{'\n'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
