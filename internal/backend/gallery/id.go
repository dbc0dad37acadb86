package gallery

import (
	"crypto/rand"
	"fmt"
	"time"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// generateID returns log_<epoch ms>_<5 base36 chars>. Collisions are
// unlikely, not impossible.
func generateID(now time.Time) string {
	var suffix [5]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("gallery: read random bytes: %v", err))
	}
	for i, b := range suffix {
		suffix[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return fmt.Sprintf("log_%d_%s", now.UnixMilli(), suffix[:])
}
