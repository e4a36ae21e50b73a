package depgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingDependency is returned when a requested module or one of
	// its required dependencies is not known.
	ErrMissingDependency = errors.New("depgraph: missing required dependency")

	// ErrCycle is returned when the dependency graph cannot be linearized.
	// No partial order is produced.
	ErrCycle = errors.New("depgraph: dependency cycle")
)

// Dep is one declared dependency edge, transient to resolution.
type Dep struct {
	Name     string
	Required bool
}

// Node is the resolver's view of a module: its name, its registration order
// (used to break ties among simultaneously ready nodes), and its declared
// dependencies.
type Node struct {
	Name  string
	Order int
	Deps  []Dep
}

// Lookup resolves a module name to its Node. The second return value is
// false for unknown names.
type Lookup func(name string) (Node, bool)

// Resolve expands the requested names to include every required dependency
// transitively, then orders the expanded set so each module follows all of
// its dependencies. Missing required dependencies fail hard; missing
// optional ones are silently dropped. Ordering uses a FIFO ready queue
// seeded with dependency-free nodes (Kahn's algorithm); ties are broken by
// registration order, so resolution is deterministic for a given registry.
func Resolve(requested []string, lookup Lookup) ([]string, error) {
	nodes := make(map[string]Node)

	// Transitive expansion. Requested names are themselves required.
	pending := make([]string, len(requested))
	copy(pending, requested)
	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		if _, seen := nodes[name]; seen {
			continue
		}
		n, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingDependency, name)
		}
		nodes[name] = n
		for _, d := range n.Deps {
			if _, seen := nodes[d.Name]; seen {
				continue
			}
			if _, ok := lookup(d.Name); !ok {
				if d.Required {
					return nil, fmt.Errorf("%w: %q (required by %q)", ErrMissingDependency, d.Name, name)
				}
				continue // optional and absent: dropped
			}
			pending = append(pending, d.Name)
		}
	}

	// Edges run dependency -> dependent; in-degree counts dependencies
	// present in the expanded set. Optional dependencies that are present
	// still constrain the order.
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for name, n := range nodes {
		for _, d := range n.Deps {
			if _, present := nodes[d.Name]; !present {
				continue
			}
			indegree[name]++
			dependents[d.Name] = append(dependents[d.Name], name)
		}
	}

	var ready []string
	for name := range nodes {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sortByOrder(ready, nodes)

	out := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		out = append(out, name)

		var unlocked []string
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		sortByOrder(unlocked, nodes)
		ready = append(ready, unlocked...)
	}

	if len(out) < len(nodes) {
		var stuck []string
		for name := range nodes {
			if indegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		sortByOrder(stuck, nodes)
		return nil, fmt.Errorf("%w involving: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return out, nil
}

func sortByOrder(names []string, nodes map[string]Node) {
	sort.SliceStable(names, func(i, j int) bool {
		return nodes[names[i]].Order < nodes[names[j]].Order
	})
}
