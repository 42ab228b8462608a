package llm

const openRouterBaseURL = "https://openrouter.ai/api/v1"

func NewOpenRouterProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "google/gemini-2.5-flash"
	}
	return newOpenAICompatible("openrouter", openRouterBaseURL, apiKey, model)
}
