package gemini

// MapError exports mapError for testing.
var MapError = mapError
