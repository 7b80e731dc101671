// Package types provides shared type definitions for the application.
package types

// Model selects which of the two configured Gemini models a submission uses.
type Model int

const (
	// ModelPrimary is the default, higher-quality model.
	ModelPrimary Model = iota
	// ModelSecondary is the faster fallback model.
	ModelSecondary
)

// Toggle returns the other model.
func (m Model) Toggle() Model {
	if m == ModelPrimary {
		return ModelSecondary
	}
	return ModelPrimary
}

func (m Model) String() string {
	if m == ModelSecondary {
		return "secondary"
	}
	return "primary"
}

// PromptMode selects which fixed instruction template accompanies the audio.
type PromptMode int

const (
	// ModeAssistant asks the model to answer the spoken question.
	ModeAssistant PromptMode = iota
	// ModeTranscribe asks the model for a verbatim transcription only.
	ModeTranscribe
)

// Toggle returns the other prompt mode.
func (p PromptMode) Toggle() PromptMode {
	if p == ModeAssistant {
		return ModeTranscribe
	}
	return ModeAssistant
}

func (p PromptMode) String() string {
	if p == ModeTranscribe {
		return "Transcribe"
	}
	return "Assistant"
}

// Snapshot captures the settings in effect when a recording is finalized.
// The values at stop time apply to that submission, not the values at start.
type Snapshot struct {
	ModelName string     // concrete Gemini model identifier
	Mode      PromptMode // which template Prompt was derived from
	Prompt    string     // full instruction text sent with the audio
}
