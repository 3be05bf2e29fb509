package dictation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/profile"
	"github.com/SamalehZen/tambourine-voice-speech-to-text/internal/prompt"
)

// AppContext describes the application the client is dictating into.
type AppContext struct {
	AppName           string
	Profile           profile.Profile
	AdditionalContext string
}

// TranslationConfig enables translation mode for a target language code.
type TranslationConfig struct {
	TargetLanguage string
	Enabled        bool
}

// Message is one entry of the per-recording LLM context.
type Message struct {
	Role    string
	Content string
}

// translationInstructions maps language codes to translation directives.
var translationInstructions = map[string]string{
	"zh": "Translate the user's speech to Simplified Chinese. Maintain the tone and formality level.",
	"en": "Translate the user's speech to English. Maintain the tone and formality level.",
	"es": "Translate the user's speech to Spanish. Maintain the tone and formality level.",
	"de": "Translate the user's speech to German. Maintain the tone and formality level.",
	"fr": "Translate the user's speech to French. Maintain the tone and formality level.",
	"ar": "Translate the user's speech to Arabic. Maintain the tone and formality level. Use Modern Standard Arabic.",
	"ja": "Translate the user's speech to Japanese. Maintain the tone and formality level.",
	"ko": "Translate the user's speech to Korean. Maintain the tone and formality level.",
	"pt": "Translate the user's speech to Portuguese. Maintain the tone and formality level.",
	"ru": "Translate the user's speech to Russian. Maintain the tone and formality level.",
	"it": "Translate the user's speech to Italian. Maintain the tone and formality level.",
	"hi": "Translate the user's speech to Hindi. Maintain the tone and formality level.",
}

// ContextManager manages the LLM context for one connection's dictation.
// Each recording is independent: Reset clears the history and installs the
// current system prompt, so no conversation state leaks between recordings.
// Turn boundaries are controlled externally via UserStartedSpeaking and
// UserStoppedSpeaking.
type ContextManager struct {
	mu sync.Mutex

	sections    prompt.Sections
	appContext  *AppContext
	translation *TranslationConfig

	messages      []Message
	speaking      bool
	lastTurnStart time.Time

	logger *slog.Logger
}

// NewContextManager creates a context manager with the advanced section
// enabled by default, matching the desktop client's initial configuration.
func NewContextManager(logger *slog.Logger) *ContextManager {
	return &ContextManager{
		sections: prompt.Sections{
			AdvancedEnabled:   true,
			DictionaryEnabled: true,
		},
		logger: logger,
	}
}

// SystemPrompt assembles the combined system prompt from the prompt sections,
// the app context, and the translation mode.
func (m *ContextManager) SystemPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.systemPromptLocked()
}

func (m *ContextManager) systemPromptLocked() string {
	parts := []string{prompt.Combine(m.sections)}

	if m.appContext != nil {
		parts = append(parts, m.appContextSection())
	}

	if m.translation != nil && m.translation.Enabled {
		parts = append(parts, m.translationSection())
	}

	return strings.Join(parts, "\n\n")
}

func (m *ContextManager) appContextSection() string {
	p := m.appContext.Profile
	s := p.Settings

	lines := []string{
		"## Active Application Context",
		fmt.Sprintf("You are formatting text for: %s", m.appContext.AppName),
		"",
		fmt.Sprintf("### Formatting Profile: %s", p.Name),
		p.Prompt,
		"",
		"### Profile Settings:",
		fmt.Sprintf("- Tone: %s", s.Tone),
		fmt.Sprintf("- Punctuation: %s", s.Punctuation),
		fmt.Sprintf("- Capitalization: %s", s.Capitalization),
		fmt.Sprintf("- Line breaks: %s", s.LineBreaks),
	}

	if s.EmojiAllowed {
		lines = append(lines, "- Emojis: allowed")
	} else {
		lines = append(lines, "- Emojis: not allowed")
	}
	if s.CodeFormatting {
		lines = append(lines, "- Code formatting: enabled")
	}
	if s.SignatureEnabled {
		lines = append(lines, "- Email signatures: enabled")
	}

	if m.appContext.AdditionalContext != "" {
		lines = append(lines, "", m.appContext.AdditionalContext)
	}

	lines = append(lines, "",
		"Apply these formatting rules to the transcribed text while following all other core rules.")

	return strings.Join(lines, "\n")
}

func (m *ContextManager) translationSection() string {
	target := m.translation.TargetLanguage
	instruction, ok := translationInstructions[target]
	if !ok {
		instruction = fmt.Sprintf("Translate the user's speech to %s.", target)
	}

	return fmt.Sprintf(`## Translation Mode Active
%s

IMPORTANT RULES:
1. First understand what the user said in their language
2. Translate the MEANING, not word-for-word
3. Apply the context-aware formatting AFTER translation
4. Preserve technical terms, names, and code identifiers without translation
5. Match the original tone (formal/casual) in the translation`, instruction)
}

// SetAppContext sets the application context for the next recording.
func (m *ContextManager) SetAppContext(appName string, p profile.Profile, additionalContext string) {
	m.mu.Lock()
	m.appContext = &AppContext{
		AppName:           appName,
		Profile:           p,
		AdditionalContext: additionalContext,
	}
	m.mu.Unlock()

	m.logger.Info("App context set",
		slog.String("app_name", appName),
		slog.String("profile", p.Name),
	)
}

// ClearAppContext clears the current app context.
func (m *ContextManager) ClearAppContext() {
	m.mu.Lock()
	m.appContext = nil
	m.mu.Unlock()
}

// SetTranslationMode enables translation to the given language code, or
// disables translation when the code is empty.
func (m *ContextManager) SetTranslationMode(targetLanguage string) {
	m.mu.Lock()
	if targetLanguage == "" {
		m.translation = nil
	} else {
		m.translation = &TranslationConfig{TargetLanguage: targetLanguage, Enabled: true}
	}
	m.mu.Unlock()

	if targetLanguage == "" {
		m.logger.Info("Translation mode disabled")
	} else {
		m.logger.Info("Translation mode enabled", slog.String("target", targetLanguage))
	}
}

// SetPromptSections updates the prompt section configuration.
func (m *ContextManager) SetPromptSections(s prompt.Sections) {
	m.mu.Lock()
	m.sections = s
	m.mu.Unlock()

	m.logger.Info("Formatting prompt sections updated")
}

// Reset clears all previous messages and installs the current system prompt.
// Called when a recording starts so each dictation is independent.
func (m *ContextManager) Reset() {
	m.mu.Lock()
	m.messages = []Message{{Role: "system", Content: m.systemPromptLocked()}}
	m.mu.Unlock()

	m.logger.Debug("Context reset for new recording")
}

// Messages returns a snapshot of the current context messages.
func (m *ContextManager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// AppendTranscript adds a user transcript fragment to the current context.
func (m *ContextManager) AppendTranscript(text string) {
	m.mu.Lock()
	m.messages = append(m.messages, Message{Role: "user", Content: text})
	m.mu.Unlock()
}

// UserStartedSpeaking marks the start of an externally controlled user turn.
func (m *ContextManager) UserStartedSpeaking() {
	m.mu.Lock()
	m.speaking = true
	m.lastTurnStart = time.Now()
	m.mu.Unlock()
}

// UserStoppedSpeaking marks the end of the current user turn.
func (m *ContextManager) UserStoppedSpeaking() {
	m.mu.Lock()
	m.speaking = false
	m.mu.Unlock()
}

// Speaking reports whether a user turn is currently open.
func (m *ContextManager) Speaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}
