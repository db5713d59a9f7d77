package mboxheader

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyntheticIDDomain is the right-hand side of generated message ids.
const SyntheticIDDomain = "mboxarchive"

// SyntheticMessageID builds an id for a message without a Message-Id
// header. A known date gives a time-ordered UUIDv7, otherwise a random v4.
func SyntheticMessageID(date time.Time) string {
	var id string
	if date.IsZero() {
		id = uuid.NewString()
	} else {
		id = makeUUIDv7(date)
	}
	return id + "@" + SyntheticIDDomain
}

// makeUUIDv7 generates a UUID version 7 (draft RFC 9562) based on a timestamp
func makeUUIDv7(timestamp time.Time) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)

	// Set timestamp in big-endian format (bytes 0-5)
	ms := timestamp.UnixMilli()
	binary.BigEndian.PutUint64(b[0:8], uint64(ms)<<16) // 48 bits of timestamp
	_, _ = rand.Read(b[6:8])

	// Version 7 (0111)
	b[6] = (b[6] & 0x0f) | 0x70

	// Variant RFC 4122
	b[8] = (b[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
