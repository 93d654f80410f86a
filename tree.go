package doclai

import "strconv"

// NodeKind tags the variant held by a TreeNode.
type NodeKind int

const (
	ScalarNode NodeKind = iota
	SequenceNode
	MappingNode
)

// TreeNode is a nested key-value configuration tree: a scalar, a sequence
// of nodes or an ordered mapping.
type TreeNode struct {
	Kind    NodeKind
	Value   string // Scalar text
	Tag     string // Scalar type tag as read from the source (e.g. "!!str")
	Items   []*TreeNode
	Entries []TreeEntry
}

// TreeEntry is one key of a mapping, in source order.
type TreeEntry struct {
	Key   string
	Value *TreeNode
}

// Scalar creates a string scalar node.
func Scalar(value string) *TreeNode {
	return &TreeNode{Kind: ScalarNode, Value: value}
}

// Sequence creates a sequence node.
func Sequence(items ...*TreeNode) *TreeNode {
	return &TreeNode{Kind: SequenceNode, Items: items}
}

// Mapping creates a mapping node holding entries in order.
func Mapping(entries ...TreeEntry) *TreeNode {
	return &TreeNode{Kind: MappingNode, Entries: entries}
}

// Lookup returns the value stored under key, if n is a mapping holding it.
func (n *TreeNode) Lookup(key string) (*TreeNode, bool) {
	if n == nil || n.Kind != MappingNode {
		return nil, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// CountKeys returns the number of mapping keys in the tree.
func (n *TreeNode) CountKeys() int {
	if n == nil {
		return 0
	}
	total := 0
	for _, it := range n.Items {
		total += it.CountKeys()
	}
	for _, e := range n.Entries {
		total += 1 + e.Value.CountKeys()
	}
	return total
}

// KeyMap maps a structural path in a source tree to the translated key found
// at the same path of the translated tree.
type KeyMap map[string]string

// Path segments are "/[i]" for sequence items and "/" plus the quoted key for
// mapping entries. Quoting keeps keys holding "." "/" or "[" from colliding
// with a nested path.
func indexPath(parent string, i int) string {
	return parent + "/[" + strconv.Itoa(i) + "]"
}

func keyPath(parent, key string) string {
	return parent + "/" + strconv.Quote(key)
}

// BuildKeyMap walks a source tree and its translation in parallel and records,
// for every source key path, the key used by the translation at that path.
// Sequences pair items by index. Mappings pair entries by position when both
// hold the same number of entries; otherwise only single-entry mappings pair.
func BuildKeyMap(src, trans *TreeNode) KeyMap {
	km := make(KeyMap)
	buildKeyMap(src, trans, "", km)
	return km
}

func buildKeyMap(src, trans *TreeNode, path string, km KeyMap) {
	if src == nil || trans == nil || src.Kind != trans.Kind {
		return
	}
	switch src.Kind {
	case SequenceNode:
		for i := 0; i < len(src.Items) && i < len(trans.Items); i++ {
			buildKeyMap(src.Items[i], trans.Items[i], indexPath(path, i), km)
		}
	case MappingNode:
		if len(src.Entries) != len(trans.Entries) && (len(src.Entries) != 1 || len(trans.Entries) == 0) {
			return
		}
		for i, e := range src.Entries {
			t := trans.Entries[i]
			p := keyPath(path, e.Key)
			km[p] = t.Key
			buildKeyMap(e.Value, t.Value, p, km)
		}
	}
}
