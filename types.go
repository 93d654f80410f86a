package doclai

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleTechnical uses precise, technical language for documentation.
	StyleTechnical TranslationStyle = "technical"
)

// BlockType is the structural kind of a Block.
type BlockType string

const (
	BlockHeading       BlockType = "heading"
	BlockParagraph     BlockType = "paragraph"
	BlockListItem      BlockType = "list_item"
	BlockCode          BlockType = "code"
	BlockHTML          BlockType = "html"
	BlockTable         BlockType = "table"
	BlockQuote         BlockType = "blockquote"
	BlockThematicBreak BlockType = "thematic_break"
	BlockFrontmatter   BlockType = "frontmatter"
	BlockOther         BlockType = "other"
)

// Atomic reports whether blocks of this type are copied or translated as a
// whole and never split into sentences.
func (t BlockType) Atomic() bool {
	switch t {
	case BlockCode, BlockHTML, BlockFrontmatter, BlockThematicBreak, BlockTable, BlockQuote:
		return true
	}
	return false
}

// Translatable reports whether blocks of this type carry text for the backend.
func (t BlockType) Translatable() bool {
	switch t {
	case BlockCode, BlockHTML, BlockThematicBreak:
		return false
	}
	return true
}

// Block is one structural unit of a parsed document.
type Block struct {
	Type        BlockType
	Level       int    // Heading depth (1-6), 0 for other blocks
	Path        string // Ordinal address, e.g. "3" or "3/0/1" for nested list items
	ParentKey   string // Path of the enclosing container block ("" at top level)
	HeadingPath string // Enclosing heading texts joined with " > "
	Raw         string // Verbatim source slice
	Marker      string // Leading structural marker of Raw ("## ", "- ", "1. ")
	Normalized  string // Formatting-insensitive form used for exact matching
	Plain       string // Markup-free text used for hashing and similarity
	Start       int    // Byte offset of Raw in the source
	End         int    // Byte offset just past Raw
	Separator   string // Verbatim text between this block and the next
}

// Content returns Raw without its leading structural marker.
func (b Block) Content() string {
	return b.Raw[len(b.Marker):]
}

// Document is a parsed source file.
type Document struct {
	Lead   string // Whitespace before the first block
	Blocks []Block
}

// Parser turns raw document text into an ordered block list.
// Implementations never fail: malformed input yields a best-effort result.
type Parser interface {
	Parse(source string) Document
}

// TreeParser reads and writes nested key-value configuration trees.
type TreeParser interface {
	ParseTree(source string) (*TreeNode, error)
	RenderTree(root *TreeNode, header string) (string, error)
	HeaderComments(source string) string
}

// ProcessedContent is the result of translating one document or tree.
type ProcessedContent struct {
	Content         string // Translated content
	TotalBlocks     int    // Blocks (or keys) found in the new source
	ReusedCount     int    // Blocks/segments/keys carried over from the prior translation
	TranslatedCount int    // Fragments sent for fresh translation
	EditedCount     int    // Fragments sent for minimal-diff editing
	SplicedCount    int    // Blocks updated through insertion splicing
	CachedCount     int    // Backend requests answered from cache
	DriftRejected   int    // Edits discarded by the drift guard
}
