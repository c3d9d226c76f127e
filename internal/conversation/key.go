// Package conversation derives the canonical key for a two-party
// direct-message thread.
package conversation

// Key is the order-independent identifier of a conversation: the two
// participant ids sorted lexicographically. Stored verbatim on every
// message and used as the equality filter for live queries, so both
// participants resolve to the same stream.
type Key [2]string

// NewKey returns the canonical key for the pair (a, b). Pure;
// NewKey(a, b) == NewKey(b, a). A degenerate a == b pair is returned
// as-is; refusing self-conversations is the session's responsibility.
func NewKey(a, b string) Key {
	if b < a {
		a, b = b, a
	}
	return Key{a, b}
}

// Peer returns the other participant relative to self, or "" when self
// is not part of the key.
func (k Key) Peer(self string) string {
	switch self {
	case k[0]:
		return k[1]
	case k[1]:
		return k[0]
	}
	return ""
}

func (k Key) String() string { return k[0] + ":" + k[1] }
