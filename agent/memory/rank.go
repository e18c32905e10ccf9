package memory

import (
	"sort"

	contractx "github.com/tanpawarit/meal-planner-agent/agent/contract"
)

// rank scores records in log order and returns the top k at or above
// minScore. Ties favour the most recently appended record.
func rank(records []contractx.MemoryRecord, query []float32, k int, minScore float64) []contractx.ScoredRecord {
	if k <= 0 || len(records) == 0 {
		return nil
	}

	scored := make([]contractx.ScoredRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		score := cosine(records[i].Embedding, query)
		if score < minScore {
			continue
		}
		scored = append(scored, contractx.ScoredRecord{Record: records[i], Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
