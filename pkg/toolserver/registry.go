package toolserver

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages registered tools with collision detection.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tools, failing on name collisions.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(tools))
	for _, tool := range tools {
		if tool.Name == "" {
			return fmt.Errorf("tool has no name")
		}
		if tool.Handler == nil {
			return fmt.Errorf("tool %s has no handler", tool.Name)
		}
		if _, exists := r.tools[tool.Name]; exists {
			return fmt.Errorf("tool name conflict: %s already registered", tool.Name)
		}
		if _, dup := seen[tool.Name]; dup {
			return fmt.Errorf("tool name conflict: %s appears twice in one batch", tool.Name)
		}
		seen[tool.Name] = struct{}{}
	}
	for _, tool := range tools {
		r.tools[tool.Name] = tool
	}
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	if !exists {
		return Tool{}, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Has checks if a tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}
