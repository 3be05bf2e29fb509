// Package dictation manages per-connection LLM context for dictation formatting:
// the three-section system prompt, app context awareness, translation mode, and
// context reset before each recording. It also provides the per-connection
// runner that formats inbound transcript segments and returns the result.
package dictation
