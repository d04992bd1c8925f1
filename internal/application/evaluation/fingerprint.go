package evaluation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/reelgauge/reelgauge/internal/domain/rubric"
)

// Fingerprint derives the cache key for a (video, check-sets) pair.  The
// check-set names are sorted and deduplicated first so that submissions
// naming the same sets in any order share one fingerprint.
func Fingerprint(videoURI string, sets []rubric.CheckSet) string {
	names := rubric.CanonicalNames(sets)
	h := sha256.New()
	h.Write([]byte(videoURI))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(names, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
