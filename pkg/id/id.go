// Package id generates run identifiers. Run listings order newest-first and
// tie-break on the ID, which works because ULIDs sort lexicographically by
// creation time.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces ULID strings from one entropy stream. The stream is
// monotonic, so IDs created within the same millisecond still sort in
// creation order. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator returns a Generator whose entropy is seeded from crypto/rand,
// making the ID stream unpredictable.
func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return newGenerator(seed, time.Now)
}

// NewSeeded returns a Generator with a fixed seed and clock, producing a
// reproducible ID sequence. Test use only.
func NewSeeded(seed int64, now func() time.Time) *Generator {
	return newGenerator(seed, now)
}

func newGenerator(seed int64, now func() time.Time) *Generator {
	return &Generator{
		now:     now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// New returns the next ULID string.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// Only possible if time goes backwards or entropy fails.
		panic(err)
	}
	return id.String()
}

var defaultGenerator = NewGenerator()

// New returns a ULID string from the process-wide generator.
func New() string {
	return defaultGenerator.New()
}
