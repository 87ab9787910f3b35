package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultConfigFile is the config file name inside the guru directory.
const DefaultConfigFile = "config.toml"

// ConfigStore gives key-level access to a TOML or YAML config file.
// The format follows the file extension; anything other than .yaml or .yml is TOML.
// Keys are flattened to dot notation in memory and nested again on save.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// DefaultConfigPath returns ~/.guru/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".guru", DefaultConfigFile), nil
}

// NewConfigStore opens the config file at path, which need not exist yet.
// If path is empty, defaults to ~/.guru/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	s := &ConfigStore{
		filePath: path,
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// Keys returns all keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a configuration value and persists immediately.
// A key may not be both a value and a section.
func (s *ConfigStore) Set(key string, value any) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return domain.NewConfigurationError(key, "invalid key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for existing := range s.data {
		if strings.HasPrefix(existing, key+".") || strings.HasPrefix(key, existing+".") {
			return domain.NewConfigurationError(key, "conflicts with %s", existing)
		}
	}

	s.data[key] = value
	return s.save()
}

// save writes the configuration file (caller must hold lock).
func (s *ConfigStore) save() error {
	nested := unflattenMap(s.data)

	var (
		data []byte
		err  error
	)
	if isYAML(s.filePath) {
		data, err = yaml.Marshal(nested)
	} else {
		data, err = toml.Marshal(nested)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.filePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}
	// Write with restricted permissions, the file may hold API keys.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads the configuration file. A missing file loads as empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if isYAML(s.filePath) {
		err = yaml.Unmarshal(data, &loaded)
	} else {
		err = toml.Unmarshal(data, &loaded)
	}
	if err != nil {
		return domain.NewConfigurationError(s.filePath, "%v", err)
	}

	if loaded == nil {
		loaded = make(map[string]any)
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// unflattenMap is the inverse of flattenMap.
func unflattenMap(flat map[string]any) map[string]any {
	root := make(map[string]any)

	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}

	return root
}
