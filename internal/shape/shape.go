// Package shape implements spec.md §4.7: the per-shape Groth16 parameter
// cache. A shape is the triple (F, Df, Da) a StepCircuit is compiled for;
// every batch that resolves to the same shape reuses the same compiled
// constraint system and proving/verifying key pair instead of re-running
// setup.
//
// Grounded on pflow-xyz-go-pflow/cache/cache.go's StateCache (mutex-guarded
// map, bounded size, Stats, GetOrCompute) generalized from a FIFO
// single-eviction policy to a true LRU (container/list, touch-on-hit) since
// shape reuse is expected to follow a working-set pattern (a prover cycling
// through a handful of batch shapes) where recency predicts reuse better
// than insertion order. Key derivation and key-to-setup wiring are grounded
// on pkg/setup/setup.go's CompileCircuit/groth16.Setup/ExportKeys/LoadKeys,
// called here against internal/circuit.New(F,Df,Da) instead of the
// teacher's fixed circuits.
package shape

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"

	"github.com/muridata/por-core/internal/circuit"
	"github.com/muridata/por-core/internal/params"
	"github.com/muridata/por-core/internal/porerr"
	"github.com/muridata/por-core/internal/porlog"
)

// Key identifies a compiled shape (spec.md §4.7: "shapes are cached keyed
// on (F, D_f, D_a)").
type Key struct {
	F  int
	Df int
	Da int
}

func (k Key) String() string {
	return fmt.Sprintf("F%d-Df%d-Da%d", k.F, k.Df, k.Da)
}

// Params bundles everything derived from a shape's one-time setup: the
// compiled constraint system plus its Groth16 proving and verifying keys.
type Params struct {
	Key Key
	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

type entry struct {
	key    Key
	params *Params
}

// Cache is a bounded, mutex-protected LRU cache of Params keyed by Key.
// Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	dir     string // shared on-disk parameter store; "" means in-process only
	items   map[Key]*list.Element
	order   *list.List // front = most recently used

	hits, misses, evictions int64
}

// NewCache creates a cache holding at most maxSize shapes, generating a
// fresh single-party setup on every miss with no persistence. This is
// process-local convenience only: two NewCache instances (in one process
// or two) never converge on the same (pk, vk) for a shape, since
// groth16.Setup draws fresh toxic waste on every call. Use it for tests
// and single-process demos where the same Cache instance (or shape.Default)
// backs both Prove and Verify. For anything spanning more than one
// process, use NewSharedCache or pre-populate a directory with
// cmd/porcompile and point every node at it.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = params.ShapeCacheSize
	}
	return &Cache{
		maxSize: maxSize,
		items:   make(map[Key]*list.Element),
		order:   list.New(),
	}
}

// NewSharedCache creates a cache backed by a shared on-disk parameter
// store at dir. Two independently-constructed SharedCache instances
// pointed at the same dir converge on byte-identical (pk, vk) for any
// shape: a miss first tries LoadParams(key, dir); only if nothing is
// there yet does it fall back to generate()+SaveParams, publishing the
// result for every other node sharing dir to pick up instead of running
// their own incompatible setup. This is the cross-process convergence
// spec.md §4.7 requires from independent verifiers -- production
// deployments should pre-populate dir exactly once via cmd/porcompile
// (dev or ceremony subcommand) before starting any prover or verifier, so
// no node ever takes the generate-on-miss branch itself. See DESIGN.md's
// internal/shape entry for why groth16.Setup itself cannot be made
// deterministic and why shared-artifact convergence is the real fix
// instead.
func NewSharedCache(maxSize int, dir string) *Cache {
	c := NewCache(maxSize)
	c.dir = dir
	return c
}

// Default is the package-wide cache used by Get when callers don't need an
// isolated instance. It is a SharedCache rooted at params.DefaultShapeDir
// (relative to the process's working directory) so that, out of the box,
// two independently started processes sharing a working directory (or a
// mounted volume at that path) converge on identical shape parameters
// instead of each silently generating its own. Tests and multi-tenant
// hosts that want isolation should construct their own Cache via NewCache
// or NewSharedCache.
var Default = NewSharedCache(params.ShapeCacheSize, params.DefaultShapeDir)

// Stats reports cache effectiveness.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      c.order.Len(),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Get returns the cached Params for key. On a miss, a SharedCache (dir !=
// "") first tries to load a previously-published artifact from dir before
// falling back to a fresh single-party generate(); a plain Cache always
// generates fresh. Generation and disk I/O happen outside the cache lock
// so concurrent misses for different keys don't serialize; a
// double-checked lookup after generation collapses a concurrent miss on
// the same key to a single winner, discarding the loser's (redundant but
// harmless) work.
func (c *Cache) Get(key Key) (*Params, error) {
	if p, ok := c.lookup(key); ok {
		return p, nil
	}

	if c.dir != "" {
		if p, err := LoadParams(key, c.dir); err == nil {
			return c.insertOrReuse(key, p), nil
		}
	}

	p, err := generate(key)
	if err != nil {
		return nil, err
	}

	if c.dir != "" {
		if err := SaveParams(p, c.dir); err != nil {
			return nil, porerr.Wrap(porerr.IO, "shape.Cache.Get", err)
		}
	}

	return c.insertOrReuse(key, p), nil
}

func (c *Cache) lookup(key Key) (*Params, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).params, true
}

func (c *Cache) insertOrReuse(key Key, p *Params) *Params {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		// Another goroutine won the race; keep its Params, not ours.
		c.order.MoveToFront(el)
		return el.Value.(*entry).params
	}

	el := c.order.PushFront(&entry{key: key, params: p})
	c.items[key] = el

	for c.order.Len() > c.maxSize {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.items, back.Value.(*entry).key)
		c.evictions++
	}

	return p
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[Key]*list.Element)
	c.order = list.New()
}

// generate compiles a fresh StepCircuit of the given shape and runs a
// single-party Groth16 setup over it. Circuit *compilation* is
// deterministic given (F, D_f, D_a) -- frontend.Compile only consumes the
// circuit's shape (slice lengths, the Define wiring), so an all-zero
// StepCircuit of the right shape compiles identically to any other witness
// of the same shape -- but groth16.Setup itself is not: it draws fresh
// toxic-waste randomness from crypto/rand internally on every call, with
// no parameter anywhere in its signature to pin that randomness. Two
// independent calls to generate() for the same key therefore produce two
// different, mutually incompatible (pk, vk) pairs.
//
// This is why Cache.Get never lets two callers converge by both calling
// generate() independently: a SharedCache tries to load a previously
// published artifact first, and only the first caller to ever need a
// shape takes this path, immediately publishing its result for everyone
// else to load instead of regenerate. Callers who need a ceremony-backed
// (multi-party, trust-minimized) parameter set instead of this
// single-party convenience path should populate the shared directory via
// internal/ceremony's Phase1/Phase2 MPC flow before any node starts,
// rather than relying on the generate-on-miss bootstrap at all.
func generate(key Key) (*Params, error) {
	if key.F <= 0 || key.Df < 0 || key.Da < 0 {
		return nil, porerr.New(porerr.InvalidInput, "shape.generate")
	}

	porlog.L().Info().
		Str("shape", key.String()).
		Msg("compiling step circuit")

	c := circuit.New(key.F, key.Df, key.Da)

	ccs, err := compileCircuit(c)
	if err != nil {
		return nil, porerr.Wrap(porerr.Circuit, "shape.generate", err)
	}

	pk, vk, err := groth16Setup(ccs)
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "shape.generate", err)
	}

	porlog.L().Info().
		Str("shape", key.String()).
		Int("constraints", int(ccs.GetNbConstraints())).
		Msg("shape ready")

	return &Params{Key: key, CCS: ccs, PK: pk, VK: vk}, nil
}
