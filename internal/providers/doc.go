// Package providers talks to language-model APIs on behalf of the AI reviewer.
//
// Two wire formats are supported: the OpenAI chat-completions format (used
// for OpenAI, OpenRouter and a local Ollama server) and Anthropic's messages
// API. Both go through a resty client with bounded retries on rate limits and
// server errors; authentication failures wrap [ErrAuth] and are never retried.
//
// [SelectTier] and [ResolveModel] pick between a fast model and a thorough
// one based on what the change touches and the configured review mode.
package providers
