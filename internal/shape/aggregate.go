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

// AggKey identifies a compiled recursive-aggregator circuit: an inner
// shape plus the fixed step-count tier internal/recur's aggregator was
// compiled to verify (spec.md §4.8's composition driver, internal/circuit's
// AggregatorCircuit).
type AggKey struct {
	Shape    Key
	MaxSteps int
}

func (k AggKey) String() string {
	return fmt.Sprintf("%s-agg%d", k.Shape.String(), k.MaxSteps)
}

// AggParams bundles an aggregator circuit's compiled constraint system and
// Groth16 keys, plus the inner shape's own verifying key it was compiled
// against (needed to assign the InnerVK field of every witness built for
// it).
type AggParams struct {
	Key     AggKey
	CCS     constraint.ConstraintSystem
	PK      groth16.ProvingKey
	VK      groth16.VerifyingKey
	InnerVK groth16.VerifyingKey
}

type aggEntry struct {
	key    AggKey
	params *AggParams
}

// AggCache is an LRU cache of AggParams, structurally identical to Cache
// but keyed on AggKey and generated from an already-resolved inner
// shape.Params rather than from scratch, since an aggregator is never
// useful without its inner shape already having been set up.
type AggCache struct {
	mu      sync.Mutex
	maxSize int
	dir     string
	items   map[AggKey]*list.Element
	order   *list.List

	hits, misses, evictions int64
}

// NewAggCache creates an aggregator cache holding at most maxSize
// entries, generating fresh on every miss with no persistence (same
// process-local-only caveat as shape.NewCache: see its doc comment).
func NewAggCache(maxSize int) *AggCache {
	if maxSize <= 0 {
		maxSize = params.ShapeCacheSize
	}
	return &AggCache{
		maxSize: maxSize,
		items:   make(map[AggKey]*list.Element),
		order:   list.New(),
	}
}

// NewSharedAggCache creates an aggregator cache backed by a shared on-disk
// directory, converging independent processes on identical aggregator
// parameters the same way shape.NewSharedCache does for the inner step
// circuit.
func NewSharedAggCache(maxSize int, dir string) *AggCache {
	c := NewAggCache(maxSize)
	c.dir = dir
	return c
}

// DefaultAgg is the package-wide aggregator cache, a SharedCache rooted at
// the same params.DefaultShapeDir as Default so a process relying on the
// façade's nil-cache default gets convergence for both the inner shape and
// the aggregator with zero extra configuration.
var DefaultAgg = NewSharedAggCache(params.ShapeCacheSize, params.DefaultShapeDir)

// AggStats mirrors Stats for an AggCache.
type AggStats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
}

func (c *AggCache) Stats() AggStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return AggStats{
		Size:      c.order.Len(),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Get returns the cached AggParams for (inner.Key, maxSteps), generating
// and caching on a miss exactly as Cache.Get does for the inner shape:
// SharedCache instances try LoadAggParams before falling back to
// generateAgg, publishing a fresh generation for every other node sharing
// dir to load instead of regenerate.
func (c *AggCache) Get(inner *Params, maxSteps int) (*AggParams, error) {
	key := AggKey{Shape: inner.Key, MaxSteps: maxSteps}

	if p, ok := c.lookup(key); ok {
		return p, nil
	}

	if c.dir != "" {
		if p, err := LoadAggParams(key, inner, c.dir); err == nil {
			return c.insertOrReuse(key, p), nil
		}
	}

	p, err := generateAgg(inner, maxSteps)
	if err != nil {
		return nil, err
	}

	if c.dir != "" {
		if err := SaveAggParams(p, c.dir); err != nil {
			return nil, porerr.Wrap(porerr.IO, "shape.AggCache.Get", err)
		}
	}

	return c.insertOrReuse(key, p), nil
}

func (c *AggCache) lookup(key AggKey) (*AggParams, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*aggEntry).params, true
}

func (c *AggCache) insertOrReuse(key AggKey, p *AggParams) *AggParams {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*aggEntry).params
	}

	el := c.order.PushFront(&aggEntry{key: key, params: p})
	c.items[key] = el

	for c.order.Len() > c.maxSize {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.items, back.Value.(*aggEntry).key)
		c.evictions++
	}

	return p
}

// Clear empties the cache.
func (c *AggCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[AggKey]*list.Element)
	c.order = list.New()
}

// generateAgg compiles circuit.PlaceholderAggregator against inner's own
// compiled constraint system and runs a single-party Groth16 setup over
// it, same non-determinism caveat as shape.generate: see that function's
// doc comment.
func generateAgg(inner *Params, maxSteps int) (*AggParams, error) {
	if maxSteps <= 0 {
		return nil, porerr.New(porerr.InvalidInput, "shape.generateAgg")
	}

	key := AggKey{Shape: inner.Key, MaxSteps: maxSteps}

	porlog.L().Info().
		Str("shape", key.String()).
		Msg("compiling aggregator circuit")

	ac := circuit.PlaceholderAggregator(inner.Key.F, inner.Key.Df, inner.Key.Da, maxSteps, inner.CCS)

	ccs, err := compileCircuit(ac)
	if err != nil {
		return nil, porerr.Wrap(porerr.Circuit, "shape.generateAgg", err)
	}

	pk, vk, err := groth16Setup(ccs)
	if err != nil {
		return nil, porerr.Wrap(porerr.Snark, "shape.generateAgg", err)
	}

	porlog.L().Info().
		Str("shape", key.String()).
		Int("constraints", int(ccs.GetNbConstraints())).
		Msg("aggregator ready")

	return &AggParams{Key: key, CCS: ccs, PK: pk, VK: vk, InnerVK: inner.VK}, nil
}
