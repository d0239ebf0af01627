package domain

// DefaultTemperature is used when a CompletionRequest leaves Temperature zero.
const DefaultTemperature = 0.7

// CompletionRequest describes one LLM exchange. The pipeline fixes the token
// budget per stage; providers fall back to DefaultTemperature when
// Temperature is zero.
type CompletionRequest struct {
	SystemPrompt string
	UserContent  string
	MaxTokens    int
	Temperature  float64
}
