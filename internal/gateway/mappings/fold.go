package mappings

import "hash/fnv"

// FoldExternalID deterministically folds an opaque external identifier
// (e.g. a UUID issued by a third system) into the integer key space the
// mapping table uses. The fold is stable but lossy: distinct external IDs
// can collide, so the result must never be treated as cryptographically
// unique. Collision odds for n identities are about n^2/2^64.
func FoldExternalID(externalID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(externalID))
	// clear the sign bit so the value fits BIGSERIAL-style columns
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
