// Package profile provides formatting profiles that adapt dictation output to
// the active application context (email, chat, code editor, terminal).
package profile
