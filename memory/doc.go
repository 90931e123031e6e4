// Package memory provides conversational memory backed by a vector-search
// store. Every message a user exchanges with the assistant is embedded and
// upserted; before each reply the manager retrieves prior messages for the
// user to build the prompt context.
//
// Architecture:
//   - Store: vector storage backend (Pinecone for production, chromem-go
//     embedded for local development)
//   - Embedder: text-to-vector conversion (ONNX all-MiniLM-L6-v2 locally,
//     mock for tests)
//   - Manager: retrieval policy, persistence, and session reset
//
// Records carry their metadata (user_id, sender, text, timestamp, mood) in
// the store so the message can be reconstructed from a query match alone.
package memory
