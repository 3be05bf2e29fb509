// Package prompt contains the three-section system prompt used for dictation
// formatting: main rules, advanced corrections, and the personal dictionary.
package prompt
