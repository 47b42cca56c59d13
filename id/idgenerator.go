// Package id generates identifiers for estimations and monitored jobs.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator generates IDs. Implementations are safe for concurrent use.
type Generator interface {
	Generate() string
}

// NewSequential returns a generator that produces prefix1, prefix2, ... IDs
// are unique within one generator only.
func NewSequential(prefix string) Generator {
	return &sequential{prefix: prefix}
}

// NewXID returns a generator of globally unique, time-sortable IDs. They
// stay unique across processes, so they can key rows of a shared database.
func NewXID() Generator {
	return xidGenerator{}
}

type sequential struct {
	prefix string
	next   atomic.Uint64
}

func (g *sequential) Generate() string {
	return g.prefix + strconv.FormatUint(g.next.Add(1), 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}
