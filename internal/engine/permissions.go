package engine

import "booking-escalator/internal/appwrite"

// OwnerPermissions returns the entries granted to the owner team on every
// new booking: read and update.
func OwnerPermissions(teamID string) []string {
	role := appwrite.Team(teamID)
	return []string{
		appwrite.Read(role),
		appwrite.Update(role),
	}
}

// MergePermissions returns the set union of current and extra. Entries keep
// their first-seen order: current first, then extras not already present.
// Entries are compared as opaque strings, so two spellings of the same grant
// are kept as separate entries.
func MergePermissions(current []string, extra ...string) []string {
	seen := make(map[string]struct{}, len(current)+len(extra))
	merged := make([]string, 0, len(current)+len(extra))
	for _, list := range [][]string{current, extra} {
		for _, p := range list {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

// addedCount returns how many entries of merged were not in current.
func addedCount(current, merged []string) int {
	have := make(map[string]struct{}, len(current))
	for _, p := range current {
		have[p] = struct{}{}
	}
	n := 0
	for _, p := range merged {
		if _, ok := have[p]; !ok {
			n++
		}
	}
	return n
}
