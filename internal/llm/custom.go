package llm

// NewCustomProvider targets any server that implements the OpenAI chat
// completions API (vLLM, LM Studio, llama.cpp server).
func NewCustomProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return newOpenAICompatible("custom", baseURL, apiKey, model)
}
