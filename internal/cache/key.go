package cache

import "strings"

// Key identifies one logical query, e.g. Key{"board", id, "lists"}.
type Key []string

// String renders the key for logs.
func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}

// Equal reports whether both keys have the same segments in order.
func (k Key) Equal(o Key) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if k[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading run of k's segments.
// The empty key is a prefix of every key.
func (k Key) HasPrefix(prefix Key) bool {
	return len(prefix) <= len(k) && k[:len(prefix)].Equal(prefix)
}

// id is the map and singleflight identity of the key. The separator cannot
// appear in Trello ids.
func (k Key) id() string {
	return strings.Join(k, "\x1f")
}

func (k Key) clone() Key {
	return append(Key(nil), k...)
}
