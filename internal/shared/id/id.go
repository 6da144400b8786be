// Package id provides centralized ID generation for the portal engine.
//
// Identifiers are prefixed ULIDs:
//   - Sortable: console and instance ids order by creation time
//   - Prefixed: inst_*, con_*, node_*, req_* make logs readable
//   - Typed: separate Go types prevent mixing a node id with an instance id
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// InstanceID identifies a mounted application instance
type InstanceID string

// ConsoleID identifies one opening of the program console
type ConsoleID string

// NodeID identifies a node attached to the engagement window
type NodeID string

const (
	InstancePrefix = "inst"
	ConsolePrefix  = "con"
	NodePrefix     = "node"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use it for deterministic ids.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewInstanceID generates a new instance ID
func NewInstanceID() InstanceID {
	return InstanceID(Default().GenerateWithPrefix(InstancePrefix))
}

// NewConsoleID generates a new console ID
func NewConsoleID() ConsoleID {
	return ConsoleID(Default().GenerateWithPrefix(ConsolePrefix))
}

// NewNodeID generates a new node ID
func NewNodeID() NodeID {
	return NodeID(Default().GenerateWithPrefix(NodePrefix))
}

func (i InstanceID) String() string { return string(i) }
func (i ConsoleID) String() string  { return string(i) }
func (i NodeID) String() string     { return string(i) }

// IsValid reports whether id is a ULID, with or without a known prefix
func IsValid(id string) bool {
	if _, rest, ok := strings.Cut(id, "_"); ok {
		id = rest
	}
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a (possibly prefixed) ULID
func Timestamp(id string) (time.Time, error) {
	if _, rest, ok := strings.Cut(id, "_"); ok {
		id = rest
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
