package scan

import "sort"

// Rank orders entries by score descending and truncates to top. Entries with
// an absent score are never interleaved with scored ones: they keep their
// stable input order and are appended after the ranked block, capped at
// unscoredCap so a broken provider day stays diagnosable without flooding
// the result.
func Rank(entries []ScoreEntry, top, unscoredCap int) []ScoreEntry {
	scored := make([]ScoreEntry, 0, len(entries))
	unscored := make([]ScoreEntry, 0)
	for _, e := range entries {
		if e.Scored() {
			scored = append(scored, e)
		} else {
			unscored = append(unscored, e)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return *scored[i].Score > *scored[j].Score
	})

	if top > 0 && len(scored) > top {
		scored = scored[:top]
	}
	if unscoredCap >= 0 && len(unscored) > unscoredCap {
		unscored = unscored[:unscoredCap]
	}
	return append(scored, unscored...)
}
