package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// promptsFile is the on-disk shape of the prompt source:
//
//	system_prompts:
//	  chef_assistant: |
//	    You are Fernando, ...
type promptsFile struct {
	SystemPrompts map[string]string `yaml:"system_prompts"`
}

// LoadPrompt reads the system prompt named by key from the YAML prompt
// source at path. Prompt content is passed through verbatim.
func LoadPrompt(path, key string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts file: %w", err)
	}

	var pf promptsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("failed to parse prompts file: %w", err)
	}

	prompt, ok := pf.SystemPrompts[key]
	if !ok {
		return "", fmt.Errorf("system prompt %q not found in %s", key, path)
	}
	return prompt, nil
}
