package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/brunseba/vra-cli/pkg/model"
)

// sortFields orders fields so that every field appears after all fields its
// templates reference. The sort is stable: fields with no ordering
// relationship keep their declaration order relative to each other. A cycle
// among template references yields ErrCycle and no ordering at all.
func sortFields(fields []model.FormField) ([]model.FormField, error) {
	position := make(map[string]int, len(fields))
	for i := range fields {
		position[fields[i].Name] = i
	}

	// Edges point dependency -> dependent. Variables naming something that is
	// not a field (for example a value injected by the caller) create no edge.
	indegree := make([]int, len(fields))
	dependents := make([][]int, len(fields))
	for i := range fields {
		for _, variable := range fields[i].Variables {
			dep, ok := position[variable]
			if !ok || dep == i {
				continue
			}
			dependents[dep] = append(dependents[dep], i)
			indegree[i]++
		}
	}

	// Kahn's algorithm with the ready set kept in declaration order.
	ready := make([]int, 0, len(fields))
	for i := range fields {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]model.FormField, 0, len(fields))
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]

		ordered = append(ordered, fields[next])
		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(ordered) != len(fields) {
		var stuck []string
		for i := range fields {
			if indegree[i] > 0 {
				stuck = append(stuck, fields[i].Name)
			}
		}
		return nil, fmt.Errorf("%w among fields: %s", ErrCycle, strings.Join(stuck, ", "))
	}
	return ordered, nil
}
