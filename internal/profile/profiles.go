package profile

import "strings"

// Tone settings for text formatting.
type Tone string

const (
	ToneFormal    Tone = "formal"
	ToneCasual    Tone = "casual"
	ToneTechnical Tone = "technical"
	ToneNeutral   Tone = "neutral"
)

// Punctuation level settings.
type Punctuation string

const (
	PunctuationFull    Punctuation = "full"
	PunctuationMinimal Punctuation = "minimal"
	PunctuationNone    Punctuation = "none"
)

// Capitalization style settings.
type Capitalization string

const (
	CapitalizationSentences Capitalization = "sentences"
	CapitalizationTitle     Capitalization = "title"
	CapitalizationLowercase Capitalization = "lowercase"
	CapitalizationPreserve  Capitalization = "preserve"
)

// LineBreaks handling settings.
type LineBreaks string

const (
	LineBreaksParagraphs LineBreaks = "paragraphs"
	LineBreaksSingle     LineBreaks = "single"
	LineBreaksNone       LineBreaks = "none"
)

// Settings control text formatting behavior for a profile.
type Settings struct {
	Tone             Tone           `json:"tone"`
	Punctuation      Punctuation    `json:"punctuation"`
	Capitalization   Capitalization `json:"capitalization"`
	LineBreaks       LineBreaks     `json:"line_breaks"`
	EmojiAllowed     bool           `json:"emoji_allowed"`
	CodeFormatting   bool           `json:"code_formatting"`
	SignatureEnabled bool           `json:"signature_enabled"`
}

// Profile is a complete formatting profile with prompt and settings.
type Profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Settings    Settings `json:"settings"`
}

// Defaults is the built-in profile set, keyed by profile ID.
var Defaults = map[string]Profile{
	"default": {
		ID:          "default",
		Name:        "Default",
		Description: "Standard dictation formatting",
		Prompt: `Format the transcribed speech as clean, readable text.
- Use proper capitalization and punctuation
- Fix obvious speech recognition errors
- Maintain the natural flow of speech`,
		Settings: Settings{
			Tone:           ToneNeutral,
			Punctuation:    PunctuationFull,
			Capitalization: CapitalizationSentences,
			LineBreaks:     LineBreaksParagraphs,
		},
	},
	"email-pro": {
		ID:          "email-pro",
		Name:        "Email Professional",
		Description: "Formal business emails",
		Prompt: `Format as a professional email. Include:
- Appropriate greeting (Dear/Hello based on context)
- Clear, formal tone with complete sentences
- Professional sign-off if closing detected
- Proper paragraph breaks between topics

If the user says "sign off" or indicates ending, add:
Best regards,
[Name]`,
		Settings: Settings{
			Tone:             ToneFormal,
			Punctuation:      PunctuationFull,
			Capitalization:   CapitalizationSentences,
			LineBreaks:       LineBreaksParagraphs,
			SignatureEnabled: true,
		},
	},
	"email-casual": {
		ID:          "email-casual",
		Name:        "Email Casual",
		Description: "Friendly, relaxed email formatting",
		Prompt: `Format as a casual, friendly email:
- Relaxed greeting (Hey, Hi)
- Conversational tone
- Contractions are fine
- Brief paragraphs
- Friendly sign-off (Thanks!, Cheers, Best)`,
		Settings: Settings{
			Tone:           ToneCasual,
			Punctuation:    PunctuationFull,
			Capitalization: CapitalizationSentences,
			LineBreaks:     LineBreaksParagraphs,
			EmojiAllowed:   true,
		},
	},
	"chat": {
		ID:          "chat",
		Name:        "Chat & Messaging",
		Description: "Casual messaging for Slack, Discord, etc.",
		Prompt: `Format for casual chat messaging:
- Keep it brief and conversational
- Use contractions naturally
- Emojis allowed when tone suggests them
- No formal punctuation needed at end of messages
- Multiple short messages can stay separate
- "new line" or "enter" starts a new message`,
		Settings: Settings{
			Tone:           ToneCasual,
			Punctuation:    PunctuationMinimal,
			Capitalization: CapitalizationSentences,
			LineBreaks:     LineBreaksSingle,
			EmojiAllowed:   true,
		},
	},
	"code": {
		ID:          "code",
		Name:        "Code Editor",
		Description: "Programming-aware formatting",
		Prompt: `Format for code/programming context:
- Detect variable names and use camelCase or snake_case as appropriate
- Technical terms should not be altered
- No periods at end of comments
- Preserve programming keywords exactly
- Format function names, class names properly
- Handle spoken symbols:
  - "equals" becomes =
  - "double equals" becomes ==
  - "arrow" or "fat arrow" becomes =>
  - "curly brace" becomes {
  - "close curly" becomes }
  - "square bracket" becomes [
  - "semicolon" becomes ;
  - "colon" becomes :
- "new line" starts a new line of code`,
		Settings: Settings{
			Tone:           ToneTechnical,
			Punctuation:    PunctuationMinimal,
			Capitalization: CapitalizationPreserve,
			LineBreaks:     LineBreaksNone,
			CodeFormatting: true,
		},
	},
	"terminal": {
		ID:          "terminal",
		Name:        "Terminal/CLI",
		Description: "Command-line formatting",
		Prompt: `Format for terminal/command-line:
- All lowercase unless explicitly capitalized
- No punctuation
- Preserve exact command syntax
- Handle flags:
  - "dash dash verbose" becomes --verbose
  - "dash v" becomes -v
- Handle symbols:
  - "pipe" becomes |
  - "redirect" or "greater than" becomes >
  - "append" becomes >>
  - "ampersand" or "and" becomes &&
  - "tilde" becomes ~
  - "slash" becomes /`,
		Settings: Settings{
			Tone:           ToneTechnical,
			Punctuation:    PunctuationNone,
			Capitalization: CapitalizationLowercase,
			LineBreaks:     LineBreaksNone,
		},
	},
	"document": {
		ID:          "document",
		Name:        "Document",
		Description: "Full document formatting",
		Prompt: `Format for document writing:
- Full sentences with proper grammar
- Complete punctuation
- Organize into clear paragraphs
- Use formal, clear language
- Handle dictated formatting:
  - "new paragraph" starts a new paragraph
  - "bullet point" creates a bullet point
  - "heading" formats as a heading`,
		Settings: Settings{
			Tone:           ToneFormal,
			Punctuation:    PunctuationFull,
			Capitalization: CapitalizationSentences,
			LineBreaks:     LineBreaksParagraphs,
		},
	},
	"notes": {
		ID:          "notes",
		Name:        "Notes",
		Description: "Quick note-taking format",
		Prompt: `Format for quick note-taking:
- Brief, scannable format
- Bullet points for lists
- Key information highlighted
- "bullet" or "dash" creates a bullet point
- "heading" or "title" creates a section header
- Skip unnecessary words`,
		Settings: Settings{
			Tone:           ToneNeutral,
			Punctuation:    PunctuationMinimal,
			Capitalization: CapitalizationSentences,
			LineBreaks:     LineBreaksSingle,
		},
	},
}

// bundleMappings maps profile IDs to application bundle identifiers.
var bundleMappings = map[string][]string{
	"email-pro": {
		"com.google.Chrome",
		"com.apple.mail",
		"com.microsoft.Outlook",
		"com.readdle.smartemail",
	},
	"chat": {
		"com.tinyspeck.slackmacgap",
		"com.hnc.Discord",
		"WhatsApp",
		"com.facebook.Messenger",
		"Telegram",
	},
	"code": {
		"com.microsoft.VSCode",
		"com.jetbrains.intellij",
		"com.todesktop.230313mzl4w4u92",
		"com.sublimetext.4",
	},
	"terminal": {
		"com.apple.Terminal",
		"com.googlecode.iterm2",
		"dev.warp.Warp-Stable",
		"org.alacritty",
	},
	"document": {
		"com.microsoft.Word",
		"com.apple.iWork.Pages",
	},
	"notes": {
		"com.apple.Notes",
		"md.obsidian",
		"notion.id",
	},
}

// urlPatterns maps URL substrings to profile IDs. URL matching takes
// precedence over bundle and app-name matching.
var urlPatterns = map[string]string{
	"mail.google.com":    "email-pro",
	"outlook.office.com": "email-pro",
	"outlook.live.com":   "email-pro",
	"slack.com":          "chat",
	"discord.com":        "chat",
	"web.whatsapp.com":   "chat",
	"messenger.com":      "chat",
	"web.telegram.org":   "chat",
	"github.com":         "code",
	"gitlab.com":         "code",
	"docs.google.com":    "document",
	"notion.so":          "notes",
}

// ForApp determines the best formatting profile for the given application
// context. URL patterns win over bundle IDs, which win over app-name
// heuristics; the default profile is the fallback.
func ForApp(appName, bundleID, url string) Profile {
	if url != "" {
		for pattern, profileID := range urlPatterns {
			if strings.Contains(url, pattern) {
				if p, ok := Defaults[profileID]; ok {
					return p
				}
			}
		}
	}

	if bundleID != "" {
		for profileID, bundles := range bundleMappings {
			for _, b := range bundles {
				if b == bundleID {
					if p, ok := Defaults[profileID]; ok {
						return p
					}
				}
			}
		}
	}

	appLower := strings.ToLower(appName)
	switch {
	case containsAny(appLower, "code", "studio", "intellij", "vim", "nvim", "cursor"):
		return Defaults["code"]
	case containsAny(appLower, "terminal", "iterm", "warp", "kitty", "alacritty"):
		return Defaults["terminal"]
	case containsAny(appLower, "slack", "discord", "telegram", "whatsapp", "messenger"):
		return Defaults["chat"]
	case containsAny(appLower, "mail", "outlook"):
		return Defaults["email-pro"]
	case containsAny(appLower, "word", "pages", "docs"):
		return Defaults["document"]
	case containsAny(appLower, "notes", "obsidian", "notion", "bear", "evernote"):
		return Defaults["notes"]
	}

	return Defaults["default"]
}

// ByID gets a profile by its ID.
func ByID(profileID string) (Profile, bool) {
	p, ok := Defaults[profileID]
	return p, ok
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
