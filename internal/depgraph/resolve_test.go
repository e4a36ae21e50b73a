package depgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapLookup builds a Lookup over a fixed node set, assigning registration
// order by slice position.
func mapLookup(nodes ...Node) Lookup {
	m := make(map[string]Node, len(nodes))
	for i, n := range nodes {
		n.Order = i
		m[n.Name] = n
	}
	return func(name string) (Node, bool) {
		n, ok := m[name]
		return n, ok
	}
}

func req(name string) Dep { return Dep{Name: name, Required: true} }
func opt(name string) Dep { return Dep{Name: name, Required: false} }

func TestResolve(t *testing.T) {
	t.Run("single node with no deps", func(t *testing.T) {
		order, err := Resolve([]string{"a"}, mapLookup(Node{Name: "a"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, order)
	})

	t.Run("required dependency precedes dependent", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "a", Deps: []Dep{req("b")}},
			Node{Name: "b"},
		)
		order, err := Resolve([]string{"a"}, lookup)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, order)
	})

	t.Run("transitive expansion includes the whole chain", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "a", Deps: []Dep{req("b")}},
			Node{Name: "b", Deps: []Dep{req("c")}},
			Node{Name: "c"},
		)
		order, err := Resolve([]string{"a"}, lookup)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, order)
	})

	t.Run("every dependency precedes every dependent", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "d", Deps: []Dep{req("b"), req("c")}},
			Node{Name: "b", Deps: []Dep{req("a")}},
			Node{Name: "c", Deps: []Dep{req("a")}},
			Node{Name: "a"},
		)
		order, err := Resolve([]string{"d"}, lookup)
		require.NoError(t, err)
		require.Len(t, order, 4)

		pos := make(map[string]int, len(order))
		for i, name := range order {
			pos[name] = i
		}
		assert.Less(t, pos["a"], pos["b"])
		assert.Less(t, pos["a"], pos["c"])
		assert.Less(t, pos["b"], pos["d"])
		assert.Less(t, pos["c"], pos["d"])
	})

	t.Run("ties break by registration order", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "z"},
			Node{Name: "m"},
			Node{Name: "a"},
		)
		order, err := Resolve([]string{"a", "z", "m"}, lookup)
		require.NoError(t, err)
		if diff := cmp.Diff([]string{"z", "m", "a"}, order); diff != "" {
			t.Fatalf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing required dependency fails", func(t *testing.T) {
		lookup := mapLookup(Node{Name: "a", Deps: []Dep{req("ghost")}})
		order, err := Resolve([]string{"a"}, lookup)
		require.ErrorIs(t, err, ErrMissingDependency)
		assert.Nil(t, order)
	})

	t.Run("missing requested name fails", func(t *testing.T) {
		order, err := Resolve([]string{"ghost"}, mapLookup(Node{Name: "a"}))
		require.ErrorIs(t, err, ErrMissingDependency)
		assert.Nil(t, order)
	})

	t.Run("missing optional dependency is dropped silently", func(t *testing.T) {
		lookup := mapLookup(Node{Name: "a", Deps: []Dep{opt("ghost")}})
		order, err := Resolve([]string{"a"}, lookup)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, order)
	})

	t.Run("present optional dependency still orders", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "a", Deps: []Dep{opt("b")}},
			Node{Name: "b"},
		)
		order, err := Resolve([]string{"a"}, lookup)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, order)
	})

	t.Run("two node cycle fails with no order", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "a", Deps: []Dep{req("b")}},
			Node{Name: "b", Deps: []Dep{req("a")}},
		)
		order, err := Resolve([]string{"a"}, lookup)
		require.ErrorIs(t, err, ErrCycle)
		assert.Nil(t, order)
	})

	t.Run("longer cycle fails", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "a", Deps: []Dep{req("c")}},
			Node{Name: "b", Deps: []Dep{req("a")}},
			Node{Name: "c", Deps: []Dep{req("b")}},
		)
		_, err := Resolve([]string{"a"}, lookup)
		require.ErrorIs(t, err, ErrCycle)
	})

	t.Run("cycle beside a valid component still fails whole resolution", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "ok"},
			Node{Name: "x", Deps: []Dep{req("y")}},
			Node{Name: "y", Deps: []Dep{req("x")}},
		)
		order, err := Resolve([]string{"ok", "x"}, lookup)
		require.ErrorIs(t, err, ErrCycle)
		assert.Nil(t, order)
	})

	t.Run("N acyclic nodes yield exactly N names", func(t *testing.T) {
		lookup := mapLookup(
			Node{Name: "n0"},
			Node{Name: "n1", Deps: []Dep{req("n0")}},
			Node{Name: "n2", Deps: []Dep{req("n0")}},
			Node{Name: "n3", Deps: []Dep{req("n1"), req("n2")}},
			Node{Name: "n4", Deps: []Dep{req("n3"), opt("n1")}},
		)
		order, err := Resolve([]string{"n4"}, lookup)
		require.NoError(t, err)
		assert.Len(t, order, 5)
	})
}
