package chatclient

import "sort"

// mergeMessages inserts incoming messages into an id-ascending list,
// dropping any id already present. A live echo and the same row from a
// later history page therefore collapse to one entry.
func mergeMessages(existing []ChatMessage, incoming ...ChatMessage) []ChatMessage {
	seen := make(map[uint]bool, len(existing))
	for _, m := range existing {
		seen[m.ID] = true
	}

	merged := existing
	for _, m := range incoming {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ID < merged[j].ID
	})

	return merged
}
