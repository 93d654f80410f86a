// Package doclai provides an incremental, structure-aware document
// translation engine.
//
// Doclai compares a document with its previous revision, reuses the prior
// translation for every block and sentence that did not change, and sends
// only the changed fragments to an AI provider. Formatting tokens (headings,
// emphasis, links, code, list structure) are preserved verbatim.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/doclai"
//	    "github.com/ZaguanLabs/doclai/cache"
//	    "github.com/ZaguanLabs/doclai/processor"
//	    "github.com/ZaguanLabs/doclai/provider"
//	)
//
//	func main() {
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    engine := doclai.NewEngine(p,
//	        doclai.WithCache(cache.NewInMemoryCache(0)),
//	        doclai.WithParser(processor.NewMarkdownParser()),
//	    )
//
//	    result, err := engine.TranslateDocument(context.Background(), doclai.DocumentRequest{
//	        TargetLang:      "en",
//	        Source:          newSource,
//	        PrevSource:      oldSource,
//	        PrevTranslation: oldTranslation,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Content)
//	}
package doclai
