// Package agent selects the classifier backend used by pattern discovery.
package agent

import (
	"fmt"

	"filing_snapshot/pkg/core/llm"
)

// Config mirrors the providers section of the run config file.
type Config struct {
	ActiveProvider string `yaml:"active_provider"`
	GeminiModel    string `yaml:"gemini_model"`
}

// Manager maps provider names to instances. Per-call overrides go through
// the options map of Provider.GenerateResponse; the manager only picks the
// backend.
type Manager struct {
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"gemini":   &llm.GeminiProvider{Model: config.GeminiModel},
			"deepseek": &llm.DeepSeekProvider{},
		},
	}
}

// ActiveProvider returns the configured backend.
func (m *Manager) ActiveProvider() (llm.Provider, error) {
	p, ok := m.providers[m.config.ActiveProvider]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", m.config.ActiveProvider)
	}
	return p, nil
}

// ProviderByName retrieves a specific backend regardless of the active
// setting.
func (m *Manager) ProviderByName(name string) (llm.Provider, error) {
	p, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}
