package order

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"time"
)

const (
	numberPrefix    = "ORD"
	numberTimestamp = "20060102150405"
	suffixLength    = 4
	suffixAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var numberPattern = regexp.MustCompile(`^ORD-\d{14}-[0-9A-Z]{4}$`)

// NewNumber builds a human-readable order number: a fixed prefix, a compact
// UTC timestamp to second precision, and a short random suffix. Uniqueness is
// probabilistic only; the storage layer enforces it with a unique constraint
// and callers regenerate on conflict.
func NewNumber(now time.Time) string {
	suffix := make([]byte, suffixLength)
	raw := make([]byte, suffixLength)
	if _, err := rand.Read(raw); err != nil {
		for i := range raw {
			raw[i] = byte(now.UnixNano() >> (8 * i))
		}
	}
	for i, b := range raw {
		suffix[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", numberPrefix, now.UTC().Format(numberTimestamp), suffix)
}

func ValidNumber(n string) bool {
	return numberPattern.MatchString(n)
}
