// Package ask implements [assistant.Transport] for the assistant service's
// POST /ask endpoint.
//
// The request carries the conversation as {"messages":[{role, content}]}
// and the service replies with {"answer": string}.
package ask

// DefaultEndpoint is the address of a locally running assistant service.
const DefaultEndpoint = "http://127.0.0.1:8000/ask"

// maxResponseBytes bounds how much of a reply is read.
const maxResponseBytes = 8 << 20
