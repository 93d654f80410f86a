package doclai

import (
	"context"
	"regexp"
	"strings"
)

// iconPrefix matches a leading icon reference such as "(ri:home-line) ".
var iconPrefix = regexp.MustCompile(`^\([a-z]+:[\w-]+\)\s+`)

// SplitIconPrefix separates a leading icon reference from a key.
func SplitIconPrefix(key string) (prefix, label string) {
	loc := iconPrefix.FindStringIndex(key)
	if loc == nil {
		return "", key
	}
	return key[:loc[1]], key[loc[1]:]
}

// KeyPathTranslator translates the keys of a navigation tree, reusing the
// translated key found at the same path of the previous translation.
// Scalar values (route paths) are never translated.
type KeyPathTranslator struct {
	disp *Dispatcher
}

// NewKeyPathTranslator creates a translator sending new keys through disp.
func NewKeyPathTranslator(disp *Dispatcher) *KeyPathTranslator {
	return &KeyPathTranslator{disp: disp}
}

type pendingKey struct {
	entry  *TreeEntry
	prefix string
	label  string
}

// Translate returns a translated copy of newSrc. oldSrc and oldTrans may be
// nil, in which case every key is translated.
func (k *KeyPathTranslator) Translate(ctx context.Context, newSrc, oldSrc, oldTrans *TreeNode) (*TreeNode, *ProcessedContent, error) {
	stats := &ProcessedContent{TotalBlocks: newSrc.CountKeys()}
	km := BuildKeyMap(oldSrc, oldTrans)

	var pending []pendingKey
	out := k.walk(newSrc, oldSrc, "", km, stats, &pending)
	if len(pending) == 0 {
		return out, stats, nil
	}

	texts := make([]string, len(pending))
	for i, p := range pending {
		texts[i] = p.label
	}
	results, err := k.disp.Translate(ctx, texts, nil)
	if err != nil {
		return nil, nil, err
	}
	for i, p := range pending {
		label := strings.TrimSpace(results[i])
		// Some backends echo the icon; keep exactly one.
		_, label = SplitIconPrefix(label)
		p.entry.Key = p.prefix + label
	}
	stats.TranslatedCount = len(pending)
	stats.CachedCount = k.disp.Stats.Cached
	return out, stats, nil
}

func (k *KeyPathTranslator) walk(n, old *TreeNode, path string, km KeyMap, stats *ProcessedContent, pending *[]pendingKey) *TreeNode {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case SequenceNode:
		out := &TreeNode{Kind: SequenceNode, Items: make([]*TreeNode, len(n.Items))}
		for i, it := range n.Items {
			var oldItem *TreeNode
			if old != nil && old.Kind == SequenceNode && i < len(old.Items) {
				oldItem = old.Items[i]
			}
			out.Items[i] = k.walk(it, oldItem, indexPath(path, i), km, stats, pending)
		}
		return out
	case MappingNode:
		out := &TreeNode{Kind: MappingNode, Entries: make([]TreeEntry, len(n.Entries))}
		for i, e := range n.Entries {
			p := keyPath(path, e.Key)
			var oldChild *TreeNode
			existed := false
			if old != nil && old.Kind == MappingNode {
				oldChild, existed = old.Lookup(e.Key)
			}
			out.Entries[i].Value = k.walk(e.Value, oldChild, p, km, stats, pending)
			if trans, ok := km[p]; existed && ok {
				out.Entries[i].Key = trans
				stats.ReusedCount++
				continue
			}
			out.Entries[i].Key = e.Key
			prefix, label := SplitIconPrefix(e.Key)
			if strings.TrimSpace(label) == "" {
				continue
			}
			*pending = append(*pending, pendingKey{entry: &out.Entries[i], prefix: prefix, label: label})
		}
		return out
	default:
		cp := *n
		return &cp
	}
}
