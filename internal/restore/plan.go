// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package restore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/aqmon/internal/docdb"
)

// Plan is the set of collection changes a restore will make
type Plan struct {
	// In the target but not in the archive
	ToDrop []string `json:"to_drop"`

	// In the archive but not in the target
	ToCreate []string `json:"to_create"`

	// Every archived name, new or existing
	ToRestore []string `json:"to_restore"`
}

// BuildPlan diffs the target's collection names against the archive's.
// Internal system.* names are ignored on both sides.
func BuildPlan(current, archived []string) Plan {
	cur := nameSet(current)
	arc := nameSet(archived)

	p := Plan{
		ToDrop:    []string{},
		ToCreate:  []string{},
		ToRestore: []string{},
	}
	for name := range cur {
		if !arc[name] {
			p.ToDrop = append(p.ToDrop, name)
		}
	}
	for name := range arc {
		if !cur[name] {
			p.ToCreate = append(p.ToCreate, name)
		}
		p.ToRestore = append(p.ToRestore, name)
	}

	sort.Strings(p.ToDrop)
	sort.Strings(p.ToCreate)
	sort.Strings(p.ToRestore)
	return p
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" || docdb.IsInternal(n) {
			continue
		}
		set[n] = true
	}
	return set
}

// Creates reports whether name is created by the plan
func (p Plan) Creates(name string) bool {
	return contains(p.ToCreate, name)
}

// Summary renders the plan on one line per set
func (p Plan) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "to_drop=[%s]\n", strings.Join(p.ToDrop, ", "))
	fmt.Fprintf(&b, "to_create=[%s]\n", strings.Join(p.ToCreate, ", "))
	fmt.Fprintf(&b, "to_restore=[%s]\n", strings.Join(p.ToRestore, ", "))
	return b.String()
}

func contains(names []string, name string) bool {
	i := sort.SearchStrings(names, name)
	return i < len(names) && names[i] == name
}
