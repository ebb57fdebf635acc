package shortener

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"github.com/serroba/linkstats/internal/metrics"
)

// DefaultCodeLength is the number of hex characters in a generated code.
const DefaultCodeLength = 8

const hexAlphabet = "0123456789abcdef"

const minNanoidDraw = 5

// CodeSource draws a candidate code. Candidates are not guaranteed to be free.
type CodeSource func() string

// UUIDHexSource takes the leading hex characters of a random UUID.
func UUIDHexSource() CodeSource {
	return func() string {
		id := uuid.New()

		return hex.EncodeToString(id[:])[:DefaultCodeLength]
	}
}

// NanoidHexSource draws codes of the given length from a lowercase hex alphabet.
func NanoidHexSource(length int) (CodeSource, error) {
	if length < 1 {
		return nil, fmt.Errorf("code length must be positive, got %d", length)
	}

	// go-nanoid never fills its buffer below minNanoidDraw characters, so short
	// codes are cut from a longer draw. Characters are independent.
	gen, err := nanoid.CustomASCII(hexAlphabet, max(length, minNanoidDraw))
	if err != nil {
		return nil, err
	}

	return func() string {
		return gen()[:length]
	}, nil
}

// Generator produces codes that are not in use at the time of the check.
// The check races with concurrent inserts; Repository.Create is the real guard.
type Generator struct {
	links Repository
	next  CodeSource
}

// NewGenerator creates a generator checking candidates against links.
func NewGenerator(links Repository, source CodeSource) *Generator {
	return &Generator{
		links: links,
		next:  source,
	}
}

// Generate draws candidates until one is unused. It only gives up on a store
// error or when ctx is done.
func (g *Generator) Generate(ctx context.Context) (Code, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code := Code(g.next())

		exists, err := g.links.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}

		if !exists {
			return code, nil
		}

		metrics.CodeCollisions.WithLabelValues(metrics.StagePrecheck).Inc()
	}
}
