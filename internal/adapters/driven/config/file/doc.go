// Package file keeps user-editable state under ~/.sercha-comply.
//
// ConfigStore reads and writes config.toml; SERCHA_COMPLY_* environment
// variables override individual keys without touching the file.
// PromptStore serves the prompt templates in prompts/, writing the built-in
// defaults the first time each one is requested.
package file
