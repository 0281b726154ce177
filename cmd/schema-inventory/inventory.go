package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// endpointFamily names a raw cache family and the field paths the decoders
// read from it.
type endpointFamily struct {
	Name     string
	Glob     string
	Required []string
}

// cachedEndpoints mirrors the relative paths the fetch client writes.
var cachedEndpoints = []endpointFamily{
	{
		Name: "bootstrap-static",
		Glob: "bootstrap/bootstrap-static.json",
		Required: []string{
			"$.events[].id", "$.events[].finished", "$.events[].data_checked",
			"$.elements[].id", "$.elements[].element_type", "$.elements[].team",
			"$.teams[].id",
		},
	},
	{
		Name:     "fixtures",
		Glob:     "gw/*/fixtures.json",
		Required: []string{"$[].id", "$[].event", "$[].stats[].identifier"},
	},
	{
		Name:     "event-live",
		Glob:     "gw/*/live.json",
		Required: []string{"$.elements[].id", "$.elements[].stats.minutes", "$.elements[].stats.bonus"},
	},
	{
		Name:     "entry-picks",
		Glob:     "entry/*/gw/*/picks.json",
		Required: []string{"$.picks[].element", "$.picks[].position", "$.picks[].multiplier", "$.entry_history.points"},
	},
	{
		Name:     "entry-history",
		Glob:     "entry/*/history.json",
		Required: []string{"$.current[].event", "$.current[].points", "$.current[].event_transfers_cost"},
	},
	{
		Name:     "standings",
		Glob:     "league/*/standings/page_*.json",
		Required: []string{"$.standings.has_next", "$.standings.results[].entry"},
	},
}

type typeSet map[string]struct{}

type Inventory struct {
	GeneratedAtUTC string     `json:"generated_at_utc"`
	RawRoot        string     `json:"raw_root"`
	Endpoints      []Endpoint `json:"endpoints"`
}

type Endpoint struct {
	Name         string  `json:"name"`
	FilesScanned int     `json:"files_scanned"`
	Fields       []Field `json:"fields"`
	// Missing lists required paths no scanned file contained.
	Missing []string `json:"missing,omitempty"`
}

type Field struct {
	Path  string   `json:"path"`
	Types []string `json:"types"`
}

// scanEndpoint merges the field types of every matching file under rawRoot.
// Unreadable files are reported on stderr and skipped.
func scanEndpoint(rawRoot string, fam endpointFamily, maxFiles int) (Endpoint, error) {
	files, err := filepath.Glob(filepath.Join(rawRoot, fam.Glob))
	if err != nil {
		return Endpoint{}, fmt.Errorf("glob %s: %w", fam.Glob, err)
	}
	sort.Strings(files)
	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}

	fields := make(map[string]typeSet)
	scanned := 0
	for _, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error %s: %v\n", f, err)
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			fmt.Fprintf(os.Stderr, "json error %s: %v\n", f, err)
			continue
		}
		walk(v, "$", fields)
		scanned++
	}

	ep := Endpoint{Name: fam.Name, FilesScanned: scanned, Fields: toFields(fields)}
	if scanned == 0 {
		return ep, nil
	}
	for _, p := range fam.Required {
		if _, ok := fields[p]; !ok {
			ep.Missing = append(ep.Missing, p)
		}
	}
	return ep, nil
}

// walk records the type of every path. Array elements share one "[]" path.
func walk(v any, path string, fields map[string]typeSet) {
	switch x := v.(type) {
	case map[string]any:
		mark(fields, path, "object")
		for k, child := range x {
			walk(child, path+"."+k, fields)
		}
	case []any:
		mark(fields, path, "array")
		for _, child := range x {
			walk(child, path+"[]", fields)
		}
	case string:
		mark(fields, path, "string")
	case bool:
		mark(fields, path, "bool")
	case float64:
		mark(fields, path, "number")
	case nil:
		mark(fields, path, "null")
	default:
		mark(fields, path, fmt.Sprintf("%T", v))
	}
}

func mark(fields map[string]typeSet, path, typ string) {
	set, ok := fields[path]
	if !ok {
		set = make(typeSet)
		fields[path] = set
	}
	set[typ] = struct{}{}
}

func toFields(fields map[string]typeSet) []Field {
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]Field, 0, len(paths))
	for _, p := range paths {
		types := make([]string, 0, len(fields[p]))
		for t := range fields[p] {
			types = append(types, t)
		}
		sort.Strings(types)
		out = append(out, Field{Path: p, Types: types})
	}
	return out
}
