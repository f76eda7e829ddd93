package procurement

import "strings"

// ItemIdentity carries the candidate identifiers a note or order line uses
// to reference an item. Identifiers originate from different upstream
// sources with inconsistent casing and whitespace, so matching is always
// done on normalized keys.
//
// Resolution is an explicit fallback chain: the primary item code first,
// then the base item code. Whichever is present first is the join key; an
// identity with neither cannot participate in fulfillment matching.
type ItemIdentity struct {
	ItemID     string `json:"item_id"`
	BaseItemID string `json:"base_item_id"`
}

// NormalizeItemKey trims and case-folds an identifier for matching
func NormalizeItemKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Key resolves the identity to a normalized join key. The second return
// value is false when no candidate identifier is present.
func (i ItemIdentity) Key() (string, bool) {
	for _, candidate := range []string{i.ItemID, i.BaseItemID} {
		if key := NormalizeItemKey(candidate); key != "" {
			return key, true
		}
	}
	return "", false
}

// Matches reports whether two identities resolve to the same join key.
// Identities that cannot resolve a key never match anything.
func (i ItemIdentity) Matches(other ItemIdentity) bool {
	a, ok := i.Key()
	if !ok {
		return false
	}
	b, ok := other.Key()
	if !ok {
		return false
	}
	return a == b
}
