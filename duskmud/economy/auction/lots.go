package auction

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

const (
	lotIDLength  = 4
	maxIDRetries = 5
)

// generateLot creates a short human-quotable lot code, retrying on the
// rare collision with a live listing.
func (h *House) generateLot() (string, error) {
	for i := 0; i < maxIDRetries; i++ {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate lot bytes: %w", err)
		}
		lot := strings.ToUpper(base32.StdEncoding.EncodeToString(buf)[:lotIDLength])
		if _, exists := h.items[lot]; !exists {
			return lot, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique lot code after %d attempts", maxIDRetries)
}
