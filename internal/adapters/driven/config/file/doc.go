// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML or YAML configuration file with dot-notation keys
//   - PromptStore: prompt templates under ~/.guru/prompts with built-in defaults
package file
