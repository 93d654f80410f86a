// Package provider implements AI translation backends.
package provider

import "github.com/ZaguanLabs/doclai"

// AIProvider is the interface for AI translation backends.
// This is an alias to the main package interface for convenience.
type AIProvider = doclai.AIProvider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = doclai.TranslateRequest

// EditRequest is an alias to the main package type.
type EditRequest = doclai.EditRequest

// EditItem is an alias to the main package type.
type EditItem = doclai.EditItem
