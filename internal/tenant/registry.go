package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// AppConfig describes one app in the family. BaseURL and SyncKey are used by
// the fan-out client to reach the app's internal sync endpoints.
type AppConfig struct {
	AppID    string `json:"app_id"`
	AppName  string `json:"app_name"`
	BaseURL  string `json:"base_url"`
	SyncKey  string `json:"sync_key"`
	BundleID string `json:"bundle_id"`
}

type AppsFile struct {
	Apps []AppConfig `json:"apps"`
}

type Registry struct {
	mu   sync.RWMutex
	apps map[string]*AppConfig
}

func NewRegistry() *Registry {
	return &Registry{
		apps: make(map[string]*AppConfig),
	}
}

func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read apps config: %w", err)
	}

	var file AppsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse apps config: %w", err)
	}

	registry := NewRegistry()
	for i := range file.Apps {
		registry.Register(&file.Apps[i])
	}
	return registry, nil
}

func (r *Registry) Register(cfg *AppConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[cfg.AppID] = cfg
}

func (r *Registry) Get(appID string) *AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.apps[appID]
}

func (r *Registry) Exists(appID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.apps[appID]
	return ok
}

func (r *Registry) All() []*AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*AppConfig, 0, len(r.apps))
	for _, cfg := range r.apps {
		result = append(result, cfg)
	}
	return result
}

// AppIDs returns all registered app ids in stable order.
func (r *Registry) AppIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.apps))
	for id := range r.apps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) BaseURL(appID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.apps[appID]
	if !ok {
		return ""
	}
	return cfg.BaseURL
}

func (r *Registry) SyncKey(appID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.apps[appID]
	if !ok {
		return ""
	}
	return cfg.SyncKey
}
