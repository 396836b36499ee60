// Package credentials resolves API keys and tokens to inject into
// spawned worker containers, so an operator never has to hardcode a
// secret into a launch command.
package credentials

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/kandev/agentnet/internal/common/logger"
)

// Credential is a resolved secret value, with a note on where it came from.
type Credential struct {
	Key    string
	Value  string
	Source string
}

// Provider resolves credentials from one backing source.
type Provider interface {
	GetCredential(ctx context.Context, key string) (*Credential, error)
	Name() string
}

// Manager resolves a credential by trying each registered provider in
// order and caching the first hit.
type Manager struct {
	providers []Provider
	cache     map[string]*Credential
	mu        sync.RWMutex
	logger    *logger.Logger
}

func NewManager(log *logger.Logger) *Manager {
	return &Manager{
		cache:  make(map[string]*Credential),
		logger: log.WithFields(zap.String("component", "credentials-manager")),
	}
}

func (m *Manager) AddProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers = append(m.providers, p)
}

// GetCredentialValue is a convenience wrapper returning just the value.
func (m *Manager) GetCredentialValue(ctx context.Context, key string) (string, error) {
	cred, err := m.GetCredential(ctx, key)
	if err != nil {
		return "", err
	}
	return cred.Value, nil
}

func (m *Manager) GetCredential(ctx context.Context, key string) (*Credential, error) {
	m.mu.RLock()
	if cred, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return cred, nil
	}
	providers := append([]Provider(nil), m.providers...)
	m.mu.RUnlock()

	for _, p := range providers {
		cred, err := p.GetCredential(ctx, key)
		if err != nil {
			continue
		}
		m.mu.Lock()
		m.cache[key] = cred
		m.mu.Unlock()
		m.logger.Debug("resolved credential", zap.String("key", key), zap.String("provider", p.Name()))
		return cred, nil
	}
	return nil, fmt.Errorf("credential not found: %s", key)
}

// EnvProvider resolves credentials from environment variables, optionally
// under a prefix (e.g. "AGENTNET_").
type EnvProvider struct {
	prefix string
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Name() string { return "environment" }

func (p *EnvProvider) GetCredential(ctx context.Context, key string) (*Credential, error) {
	if value := os.Getenv(key); value != "" {
		return &Credential{Key: key, Value: value, Source: "environment"}, nil
	}
	if p.prefix != "" {
		if value := os.Getenv(p.prefix + key); value != "" {
			return &Credential{Key: key, Value: value, Source: "environment"}, nil
		}
	}
	return nil, fmt.Errorf("credential not found: %s", key)
}
