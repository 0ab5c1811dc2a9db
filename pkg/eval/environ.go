package eval

import "strings"

// environ is the engine's environment context. Assignments mutate it and
// child processes receive its serialized entries; the engine process's own
// environment is never touched. Each frame owns its map and clones are taken
// before any subshell goroutine starts, so no locking is needed.
type environ struct {
	values map[string]string
}

func environFromOS(entries []string) environ {
	e := environ{values: make(map[string]string, len(entries))}
	for _, entry := range entries {
		// Note: Treat "foo" like "foo=" if such entries ever occur.
		name, value, _ := strings.Cut(entry, "=")
		e.values[name] = value
	}
	return e
}

func (e environ) get(name string) string {
	return e.values[name]
}

func (e environ) set(name, value string) {
	e.values[name] = value
}

// entries serializes the environment for a child process.
func (e environ) entries() []string {
	entries := make([]string, 0, len(e.values))
	for name, value := range e.values {
		entries = append(entries, name+"="+value)
	}
	return entries
}

func (e environ) clone() environ {
	return environ{cloneMap(e.values)}
}
