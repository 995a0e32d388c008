// Package idx generates the lexicographically sortable identifiers used for
// credential rows and request ids.
package idx

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID string

// Generator produces ULIDs from a monotonic entropy source. It is safe for
// concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator returns a Generator reading randomness from r.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(r, 0)}
}

// NewAt returns an ID stamped with t.
func (g *Generator) NewAt(t time.Time) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ID(ulid.MustNew(ulid.Timestamp(t.UTC()), g.entropy).String())
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

func generator() *Generator {
	defaultOnce.Do(func() { defaultGen = NewGenerator(rand.Reader) })
	return defaultGen
}

// New returns an ID for the current time.
func New() ID { return generator().NewAt(time.Now()) }

func (id ID) String() string { return string(id) }
