package outlines

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type Duplicate struct {
	SourceFile string `json:"sourceFile"`
	First      int    `json:"first"`
	Second     int    `json:"second"`
}

type CountDiff struct {
	SourceFile string `json:"sourceFile"`
	A          int    `json:"a"`
	B          int    `json:"b"`
}

// Report describes how two overlay files differ.
type Report struct {
	FeaturesA     int            `json:"featuresA"`
	FeaturesB     int            `json:"featuresB"`
	SourcesA      map[string]int `json:"sourcesA"`
	SourcesB      map[string]int `json:"sourcesB"`
	OnlyInA       []string       `json:"onlyInA"`
	OnlyInB       []string       `json:"onlyInB"`
	Common        int            `json:"common"`
	CountDiffs    []CountDiff    `json:"countDiffs"`
	DuplicatesA   []Duplicate    `json:"duplicatesA"`
	DuplicatesB   []Duplicate    `json:"duplicatesB"`
	SameOrder     bool           `json:"sameOrder"`
	SameSourceSet bool           `json:"sameSourceSet"`
}

func Compare(a, b FeatureCollection) Report {
	orderA := sourceOrder(a)
	orderB := sourceOrder(b)
	r := Report{
		FeaturesA:   len(a.Features),
		FeaturesB:   len(b.Features),
		SourcesA:    countSources(orderA),
		SourcesB:    countSources(orderB),
		DuplicatesA: findDuplicates(a),
		DuplicatesB: findDuplicates(b),
		SameOrder:   equalStrings(orderA, orderB),
	}
	for src, n := range r.SourcesA {
		m, ok := r.SourcesB[src]
		if !ok {
			r.OnlyInA = append(r.OnlyInA, src)
			continue
		}
		r.Common++
		if n != m {
			r.CountDiffs = append(r.CountDiffs, CountDiff{SourceFile: src, A: n, B: m})
		}
	}
	for src := range r.SourcesB {
		if _, ok := r.SourcesA[src]; !ok {
			r.OnlyInB = append(r.OnlyInB, src)
		}
	}
	sort.Strings(r.OnlyInA)
	sort.Strings(r.OnlyInB)
	sort.Slice(r.CountDiffs, func(i, j int) bool { return r.CountDiffs[i].SourceFile < r.CountDiffs[j].SourceFile })
	r.SameSourceSet = len(r.OnlyInA) == 0 && len(r.OnlyInB) == 0
	return r
}

func sourceOrder(fc FeatureCollection) []string {
	order := make([]string, len(fc.Features))
	for i, f := range fc.Features {
		order[i] = f.SourceFile()
	}
	return order
}

func countSources(order []string) map[string]int {
	counts := make(map[string]int)
	for _, s := range order {
		counts[s]++
	}
	return counts
}

// signature identifies a feature by its source file and the first three
// positions of its first ring or line.
func signature(f Feature) string {
	var b strings.Builder
	b.WriteString(f.SourceFile())
	geom, _ := f["geometry"].(map[string]interface{})
	coords, _ := geom["coordinates"].([]interface{})
	if len(coords) == 0 {
		return b.String()
	}
	first, _ := coords[0].([]interface{})
	if len(first) > 3 {
		first = first[:3]
	}
	for _, p := range first {
		fmt.Fprintf(&b, "|%v", p)
	}
	return b.String()
}

func findDuplicates(fc FeatureCollection) []Duplicate {
	seen := make(map[string]int)
	var dups []Duplicate
	for i, f := range fc.Features {
		sig := signature(f)
		if j, ok := seen[sig]; ok {
			dups = append(dups, Duplicate{SourceFile: f.SourceFile(), First: j, Second: i})
			continue
		}
		seen[sig] = i
	}
	return dups
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WriteText prints the report for a terminal.
func (r Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "File 1 has %d features\n", r.FeaturesA)
	fmt.Fprintf(w, "File 2 has %d features\n\n", r.FeaturesB)
	writeSources(w, "File 1", r.SourcesA)
	writeSources(w, "File 2", r.SourcesB)
	writeDuplicates(w, "File 1", r.DuplicatesA)
	writeDuplicates(w, "File 2", r.DuplicatesB)

	if len(r.OnlyInA) > 0 {
		fmt.Fprintf(w, "Source files only in File 1: %s\n", strings.Join(r.OnlyInA, ", "))
	}
	if len(r.OnlyInB) > 0 {
		fmt.Fprintf(w, "Source files only in File 2: %s\n", strings.Join(r.OnlyInB, ", "))
	}
	fmt.Fprintf(w, "Common source files: %d\n", r.Common)
	if len(r.CountDiffs) == 0 {
		fmt.Fprintln(w, "All common source files have the same feature counts.")
	} else {
		fmt.Fprintln(w, "Count differences in common source files:")
		for _, d := range r.CountDiffs {
			fmt.Fprintf(w, "  %s: File1=%d, File2=%d\n", d.SourceFile, d.A, d.B)
		}
	}
	fmt.Fprintf(w, "Feature order identical: %t\n", r.SameOrder)
	fmt.Fprintf(w, "Same set of source files: %t\n", r.SameSourceSet)
}

func writeSources(w io.Writer, label string, sources map[string]int) {
	names := make([]string, 0, len(sources))
	for s := range sources {
		names = append(names, s)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "Source files in %s:\n", label)
	for _, s := range names {
		fmt.Fprintf(w, "  %s: %d features\n", s, sources[s])
	}
	fmt.Fprintln(w)
}

func writeDuplicates(w io.Writer, label string, dups []Duplicate) {
	if len(dups) == 0 {
		fmt.Fprintf(w, "No duplicate features found in %s\n\n", label)
		return
	}
	fmt.Fprintf(w, "Found %d duplicate features in %s:\n", len(dups), label)
	for _, d := range dups {
		fmt.Fprintf(w, "  %s: features at indices [%d %d]\n", d.SourceFile, d.First, d.Second)
	}
	fmt.Fprintln(w)
}
