package sim

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

var idGeneratorMutex sync.Mutex
var idGenerator IDGenerator

// UseSequentialIDGenerator configures the ID generator to generate IDs
// sequentially. Sequential IDs keep simulations deterministic.
func UseSequentialIDGenerator() {
	idGeneratorMutex.Lock()
	idGenerator = &sequentialIDGenerator{}
	idGeneratorMutex.Unlock()
}

// UseParallelIDGenerator configures the ID generator to generate IDs that are
// safe to create from multiple goroutines. The IDs generated will not be
// deterministic anymore.
func UseParallelIDGenerator() {
	idGeneratorMutex.Lock()
	idGenerator = parallelIDGenerator{}
	idGeneratorMutex.Unlock()
}

// GetIDGenerator returns the ID generator used in the current simulation
func GetIDGenerator() IDGenerator {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	if idGenerator == nil {
		idGenerator = &sequentialIDGenerator{}
	}

	return idGenerator
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return strconv.FormatUint(idNumber, 10)
}

type parallelIDGenerator struct{}

func (g parallelIDGenerator) Generate() string {
	return xid.New().String()
}
