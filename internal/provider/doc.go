// Package provider defines the closed sets of STT and LLM provider identifiers
// and the dispatcher that applies provider-switching messages from clients.
package provider
