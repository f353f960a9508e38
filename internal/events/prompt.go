package events

// PromptType indicates the type of input expected.
type PromptType string

const (
	PromptTypeText     PromptType = "text"
	PromptTypeSelect   PromptType = "select"
	PromptTypeConfirm  PromptType = "confirm"
	PromptTypePassword PromptType = "password"
)

// PromptOption represents a selectable option.
type PromptOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ConfirmPrompt builds a yes/no approval request tied to token.
func ConfirmPrompt(label, token string) PromptRequestPayload {
	return PromptRequestPayload{
		Type:     PromptTypeConfirm,
		Label:    label,
		Required: true,
		Token:    token,
	}
}

// PasswordPrompt builds a hidden-input request tied to token.
func PasswordPrompt(label, token string) PromptRequestPayload {
	return PromptRequestPayload{
		Type:     PromptTypePassword,
		Label:    label,
		Required: true,
		Token:    token,
	}
}

// SelectPrompt builds a single-choice request tied to token.
func SelectPrompt(label, token string, options []PromptOption) PromptRequestPayload {
	return PromptRequestPayload{
		Type:     PromptTypeSelect,
		Label:    label,
		Options:  options,
		Required: true,
		Token:    token,
	}
}

// StringValue extracts a string response value.
func (p PromptResponsePayload) StringValue() string {
	if s, ok := p.Value.(string); ok {
		return s
	}
	return ""
}

// BoolValue extracts a confirmation response value.
func (p PromptResponsePayload) BoolValue() bool {
	if b, ok := p.Value.(bool); ok {
		return b
	}
	return false
}
