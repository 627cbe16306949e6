// Package gemini implements [assistant.Transport] by calling the Google
// Gemini API directly instead of going through the /ask service.
//
// It wraps the google.golang.org/genai SDK. Each Send is a single
// non-streaming GenerateContent call over the whole log.
package gemini

const defaultModel = "gemini-2.5-flash"
