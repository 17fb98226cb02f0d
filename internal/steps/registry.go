package steps

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry = make(map[string]Step)
	mu       sync.RWMutex
)

func Register(s Step) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[s.Slug()]; exists {
		panic(fmt.Sprintf("step %s already registered", s.Slug()))
	}
	registry[s.Slug()] = s
}

func List() []Step {
	mu.RLock()
	defer mu.RUnlock()
	var all []Step
	for _, s := range registry {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Slug() < all[j].Slug()
	})
	return all
}

// Resolve returns the registered step for a workflow uses: slug.
func Resolve(slug string) (Step, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[slug]
	if !ok {
		return nil, fmt.Errorf("unknown step kind %q", slug)
	}
	return s, nil
}
