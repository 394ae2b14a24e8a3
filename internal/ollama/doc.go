// Package ollama is the HTTP client for a local Ollama inference server.
//
// It covers the surface the debugging core consumes: reachability and local
// model discovery, one-time model pulls with streamed progress, and text
// completion in both buffered and streaming form. Rate limiting and
// retry-with-backoff live here, at the gateway boundary; the core above it
// never retries.
package ollama
