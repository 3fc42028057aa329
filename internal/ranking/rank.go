package ranking

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/insight-engine/internal/types"
)

// ErrInvalidCard is returned for cards that are structurally unusable, such
// as a card without a title. It is a caller bug, not a data problem.
var ErrInvalidCard = errors.New("invalid insight card")

type scoredCard[T any] struct {
	card  types.RankableCard[T]
	final float64
}

// RankInsightCards scores cards, keeps the best card per normalized title and
// orders them by score, with ties broken by title. When exploration is
// enabled, a seeded slice of the tail is chosen by novelty instead of score.
// The same input and seed always produce the same output.
func RankInsightCards[T any](cards []types.RankableCard[T], seed string, opts ...Option) ([]types.RankableCard[T], error) {
	o := newOptions(opts)

	scored := make([]scoredCard[T], 0, len(cards))
	for i, c := range cards {
		// Card is the caller's payload and is never inspected.
		if err := types.Validator().Var(c.Title, "required,notblank"); err != nil {
			return nil, fmt.Errorf("%w: card %d: %w", ErrInvalidCard, i, err)
		}
		scored = append(scored, scoredCard[T]{card: c, final: o.finalScore(c.InsightMeta)})
	}

	unique := dedupe(scored)
	sortByScore(unique)
	picked, explored := explore(unique, seed, o.explorationPct, o.limit)

	out := make([]types.RankableCard[T], len(picked))
	for i, sc := range picked {
		out[i] = sc.card
	}

	if o.stats != nil {
		*o.stats = Stats{
			Input:      len(cards),
			Duplicates: len(scored) - len(unique),
			Explored:   explored,
			Returned:   len(out),
		}
	}
	return out, nil
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// dedupe keeps the highest-scoring card per normalized title. On equal
// scores the first card seen wins.
func dedupe[T any](cards []scoredCard[T]) []scoredCard[T] {
	index := make(map[string]int, len(cards))
	out := make([]scoredCard[T], 0, len(cards))
	for _, c := range cards {
		key := normalizeTitle(c.card.Title)
		if i, ok := index[key]; ok {
			if c.final > out[i].final {
				out[i] = c
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	return out
}

func sortByScore[T any](cards []scoredCard[T]) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].final != cards[j].final {
			return cards[i].final > cards[j].final
		}
		return cards[i].card.Title < cards[j].card.Title
	})
}

// explore splits sorted into an exploit head and a seeded exploration pick
// from the tail, then re-sorts the union by score. It returns the number of
// cards taken from the tail.
func explore[T any](sorted []scoredCard[T], seed string, pct float64, limit int) ([]scoredCard[T], int) {
	slots := len(sorted)
	if limit > 0 && limit < slots {
		slots = limit
	}
	if slots <= 1 || pct <= 0 || math.IsNaN(pct) {
		return sorted[:slots], 0
	}

	explorationCount := max(1, int(math.Floor(float64(slots)*pct)))
	exploitCount := max(1, slots-explorationCount)
	explorationCount = min(explorationCount, slots-exploitCount, len(sorted)-exploitCount)

	picked := make([]scoredCard[T], 0, exploitCount+explorationCount)
	picked = append(picked, sorted[:exploitCount]...)

	tail := make([]scoredCard[T], len(sorted)-exploitCount)
	copy(tail, sorted[exploitCount:])
	keys := make(map[string]float64, len(tail))
	for _, c := range tail {
		keys[c.card.Title] = explorationKey(seed, c.card)
	}
	sort.SliceStable(tail, func(i, j int) bool {
		ki, kj := keys[tail[i].card.Title], keys[tail[j].card.Title]
		if ki != kj {
			return ki > kj
		}
		return tail[i].card.Title < tail[j].card.Title
	})
	picked = append(picked, tail[:explorationCount]...)

	sortByScore(picked)
	return picked, explorationCount
}

// explorationKey is a stable pseudo-random key in [0,2): a hash of the seed,
// title and kind mapped into [0,1), plus the card's novelty.
func explorationKey[T any](seed string, card types.RankableCard[T]) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed + ":" + card.Title + ":" + card.Kind))
	return float64(h.Sum32())/(1<<32) + clamp01(card.InsightMeta.NoveltyScore)
}
