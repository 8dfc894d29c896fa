// Package ollama is a small client for a local Ollama inference server.
//
// It covers the two endpoints geoprompt needs: /api/tags to check which models
// are installed, and /api/generate to stream a completion. Streamed chunks are
// folded into the cumulative response text by Assembler.
package ollama
