package booking

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	referencePrefix       = "BK"
	referenceDateLayout   = "060102"
	referenceSuffixLen    = 4
	referenceAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultReferenceTries = 10
)

// ReferenceExists reports whether a reference is already taken.
type ReferenceExists func(ctx context.Context, ref string) (bool, error)

// ReferenceGenerator produces BK-<YYMMDD>-<XXXX> references.
type ReferenceGenerator struct {
	now         func() time.Time
	suffix      func() (string, error)
	maxAttempts int
}

type ReferenceOption func(*ReferenceGenerator)

func WithReferenceClock(now func() time.Time) ReferenceOption {
	return func(g *ReferenceGenerator) { g.now = now }
}

// WithReferenceSuffix replaces the random suffix source.
func WithReferenceSuffix(suffix func() (string, error)) ReferenceOption {
	return func(g *ReferenceGenerator) { g.suffix = suffix }
}

func WithReferenceAttempts(n int) ReferenceOption {
	return func(g *ReferenceGenerator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func NewReferenceGenerator(opts ...ReferenceOption) *ReferenceGenerator {
	g := &ReferenceGenerator{
		now:         time.Now,
		suffix:      randomSuffix,
		maxAttempts: defaultReferenceTries,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a reference not reported by exists, giving up with
// ErrReferenceExhausted after maxAttempts collisions.
func (g *ReferenceGenerator) Generate(ctx context.Context, exists ReferenceExists) (string, error) {
	date := g.now().Format(referenceDateLayout)

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		suffix, err := g.suffix()
		if err != nil {
			return "", fmt.Errorf("reference suffix: %w", err)
		}
		ref := fmt.Sprintf("%s-%s-%s", referencePrefix, date, suffix)

		taken, err := exists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("reference lookup: %w", err)
		}
		if !taken {
			return ref, nil
		}
	}

	return "", ErrReferenceExhausted
}

func randomSuffix() (string, error) {
	max := big.NewInt(int64(len(referenceAlphabet)))
	b := make([]byte, referenceSuffixLen)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = referenceAlphabet[n.Int64()]
	}
	return string(b), nil
}
