package objectstorage

import (
	"fmt"
	"sync"
)

// NodeConfig describes one storage node: the bucket services use on it
// and the credentials to reach it.
type NodeConfig struct {
	Bucket      string   `yaml:"bucket"`
	Credentials S3Config `yaml:"credentials"`
}

// Config maps endpoint aliases to storage nodes.
type Config struct {
	ObjectStorages map[string]NodeConfig `yaml:"object_storages"`
}

// Registry hands out object storage clients by alias. Clients are created
// lazily on first use and reused afterwards.
type Registry struct {
	config Config

	mu      sync.Mutex
	clients map[string]*S3Storage
}

// NewRegistry creates a registry over the configured storage nodes.
func NewRegistry(config Config) *Registry {
	return &Registry{
		config:  config,
		clients: make(map[string]*S3Storage),
	}
}

// ForAlias returns the bucket and storage client for the given endpoint
// alias.
func (r *Registry) ForAlias(alias string) (string, ObjectStorage, error) {
	node, ok := r.config.ObjectStorages[alias]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownAlias, alias)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[alias]
	if !ok {
		var err error
		client, err = NewS3Storage(node.Credentials)
		if err != nil {
			return "", nil, fmt.Errorf("creating storage client for alias %q: %w", alias, err)
		}
		r.clients[alias] = client
	}
	return node.Bucket, client, nil
}

// Aliases lists the configured endpoint aliases.
func (r *Registry) Aliases() []string {
	aliases := make([]string, 0, len(r.config.ObjectStorages))
	for alias := range r.config.ObjectStorages {
		aliases = append(aliases, alias)
	}
	return aliases
}
