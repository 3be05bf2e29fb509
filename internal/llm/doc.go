// Package llm provides the OpenAI-backed transcript formatting service.
package llm
