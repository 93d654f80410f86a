// Package processor provides the document and tree parsers used by the engine.
package processor

import "github.com/ZaguanLabs/doclai"

// Block is an alias to the main package type.
type Block = doclai.Block

// Document is an alias to the main package type.
type Document = doclai.Document

var (
	_ doclai.Parser     = (*MarkdownParser)(nil)
	_ doclai.TreeParser = (*YAMLTreeParser)(nil)

	_ doclai.FrontmatterCodec = (*YAMLTreeParser)(nil)
)
