package updatedoc

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashDomain separates payload hashes from any other sha256 use.
const hashDomain = "casesync/update/v1"

// Hash returns a stable content hash of a serialized document, used to
// correlate journal entries and log lines with the payload that was sent.
// Format: SHA256(domain + 0x00 + payload).
func Hash(payload string) string {
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
