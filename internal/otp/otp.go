// Package otp generates short-lived email verification codes.
package otp

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// TTL is how long an issued code stays valid. Re-registration or a login on
// an unverified account resets this window and invalidates the old code.
const TTL = 10 * time.Minute

// Generator produces 6-digit verification codes with an expiry instant.
//
// The random source and clock are injectable so tests can pin both.
type Generator struct {
	intN func(n int) int
	now  func() time.Time
}

// NewGenerator creates a Generator backed by math/rand and the wall clock.
func NewGenerator() *Generator {
	return &Generator{
		intN: rand.IntN,
		now:  time.Now,
	}
}

// NewGeneratorForTest creates a Generator with a fixed random source and
// clock. Tests use it to assert on exact codes and expiries.
func NewGeneratorForTest(intN func(n int) int, now func() time.Time) *Generator {
	return &Generator{intN: intN, now: now}
}

// Generate returns a code drawn uniformly from [100000, 999999] and the
// instant it expires. Codes are never zero-padded below 100000, so the
// string is always exactly six digits.
func (g *Generator) Generate() (string, time.Time) {
	code := 100000 + g.intN(900000)
	return strconv.Itoa(code), g.now().Add(TTL)
}
