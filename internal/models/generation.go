package models

// Part is one ordered element of a generation request: either text or inline
// binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// DataPart builds an inline data part.
func DataPart(d InlineData) Part {
	copied := d
	return Part{InlineData: &copied}
}

// GenerationParams are the sampling parameters forwarded upstream. Nil fields
// are left to the provider default.
type GenerationParams struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	TopK            *float32 `json:"topK,omitempty"`
	MaxOutputTokens *int32   `json:"maxOutputTokens,omitempty"`
}

// Merge returns p with every non-nil field of override applied.
func (p GenerationParams) Merge(override GenerationParams) GenerationParams {
	if override.Temperature != nil {
		p.Temperature = override.Temperature
	}
	if override.TopP != nil {
		p.TopP = override.TopP
	}
	if override.TopK != nil {
		p.TopK = override.TopK
	}
	if override.MaxOutputTokens != nil {
		p.MaxOutputTokens = override.MaxOutputTokens
	}
	return p
}

// GenerationRequest is the assembled upstream payload.
type GenerationRequest struct {
	Model  string
	Parts  []Part
	Params GenerationParams
}

// Usage carries token accounting reported by the provider.
type Usage struct {
	PromptTokens     int32 `json:"promptTokens"`
	CompletionTokens int32 `json:"completionTokens"`
	TotalTokens      int32 `json:"totalTokens"`
}

// GenerationOutput is the normalized provider response.
type GenerationOutput struct {
	Model        string
	Text         string
	FinishReason string
	Usage        Usage
}
