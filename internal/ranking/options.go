package ranking

import "github.com/jonathan/insight-engine/internal/types"

// DefaultExplorationPct is the share of output reserved for exploration.
const DefaultExplorationPct = 0.2

// Option configures a ranking call.
type Option func(*options)

type options struct {
	explorationPct float64
	hybrid         bool
	priors         types.PriorTables
	limit          int
	stats          *Stats
}

// Stats reports what a ranking call did.
type Stats struct {
	Input      int `json:"input"`
	Duplicates int `json:"duplicates"`
	Explored   int `json:"explored"`
	Returned   int `json:"returned"`
}

func newOptions(opts []Option) options {
	o := options{explorationPct: DefaultExplorationPct}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithExplorationPct sets the exploration share. Values at or below zero
// disable exploration.
func WithExplorationPct(pct float64) Option {
	return func(o *options) { o.explorationPct = pct }
}

// WithHybridLearning blends historical priors into the base score.
func WithHybridLearning(priors types.PriorTables) Option {
	return func(o *options) {
		o.hybrid = true
		o.priors = priors
	}
}

// WithLimit caps the number of cards returned. The exploration share is
// then taken out of the limited slots. Zero means no cap.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithStats records counters for the call into s.
func WithStats(s *Stats) Option {
	return func(o *options) { o.stats = s }
}

func (o options) finalScore(meta types.InsightMeta) float64 {
	base := baseScore(meta)
	if !o.hybrid {
		return base
	}
	prior, _, ok := lookupPrior(meta, o.priors)
	if !ok {
		return base
	}
	return blend(base, prior)
}
