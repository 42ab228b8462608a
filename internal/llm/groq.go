package llm

const groqBaseURL = "https://api.groq.com/openai/v1"

func NewGroqProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return newOpenAICompatible("groq", groqBaseURL, apiKey, model)
}
