package recipe

import "slices"

// UpdateWithVersioning applies proposed on top of existing.
//
// Only ingredients and instructions count as content. When neither changed the
// proposed recipe keeps the existing version and history, so title or rating
// edits never bump the version. Otherwise the version grows by one and the
// pre-edit content is appended to history.
func UpdateWithVersioning(existing, proposed Recipe) Recipe {
	out := proposed
	out.ID = existing.ID

	if contentEqual(existing, proposed) {
		out.Version = existing.CurrentVersion()
		out.History = existing.History
		return out
	}

	history := make([]Snapshot, 0, len(existing.History)+1)
	history = append(history, existing.History...)
	history = append(history, existing.Snapshot())

	out.Version = existing.CurrentVersion() + 1
	out.History = history
	return out
}

func contentEqual(a, b Recipe) bool {
	return slices.Equal(a.Ingredients, b.Ingredients) &&
		slices.Equal(a.Instructions, b.Instructions)
}

// ResolveContent returns the content of r as it was at the pinned version.
// A pin that matches nothing in history (pruned, zero, or from the future)
// resolves to the current content.
func ResolveContent(r Recipe, pinned int) Snapshot {
	if pinned == r.CurrentVersion() {
		return r.Snapshot()
	}
	for _, s := range r.History {
		if s.Version == pinned {
			return s
		}
	}
	return r.Snapshot()
}
