package logger

import (
	"context"
	"sort"
	"sync"
)

var (
	registryMu         sync.RWMutex
	contextKeyRegistry = make(map[any]string)
)

// RegisterContextKey makes ctx-aware log calls emit ctx.Value(ctxKey) under logField.
func RegisterContextKey(ctxKey any, logField string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	contextKeyRegistry[ctxKey] = logField
}

func UnregisterContextKey(ctxKey any) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(contextKeyRegistry, ctxKey)
}

// fieldsFromContext returns key/value pairs ordered by field name so log
// output is stable between calls.
func fieldsFromContext(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(contextKeyRegistry))
	values := make(map[string]any, len(contextKeyRegistry))
	for key, field := range contextKeyRegistry {
		if val := ctx.Value(key); val != nil {
			names = append(names, field)
			values[field] = val
		}
	}
	sort.Strings(names)

	fields := make([]any, 0, len(names)*2)
	for _, name := range names {
		fields = append(fields, name, values[name])
	}
	return fields
}
