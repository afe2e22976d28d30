// Package ids maps semantic keys to the identifiers and tags written into
// generated diagrams.
//
// Every cross-reference in a diagram (parent attributes, arrow endpoints and
// the tag lists inside interactive link actions) must pass through [ID] or
// [Tag]. The mapping is the identity today; keeping it behind one seam lets a
// future encoding (short numeric codes, say) change every reference at once.
package ids

import "strings"

// Sep separates the segments of a semantic key.
const Sep = "#"

// ID returns the diagram identifier for key.
func ID(key string) string { return key }

// Tag returns the diagram tag for key.
func Tag(key string) string { return key }

// Key joins parts into a semantic key, e.g. Key("s", "orders", "core")
// yields "s#orders#core".
func Key(parts ...string) string {
	return strings.Join(parts, Sep)
}

// Tags maps each key through [Tag].
func Tags(keys ...string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Tag(k)
	}
	return out
}
