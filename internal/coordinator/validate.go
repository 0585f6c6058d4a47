package coordinator

import (
	"fmt"
	"slices"
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// maxSuggestions bounds the suggestions per unknown value.
const maxSuggestions = 3

// locatorLister is implemented by hosts that can enumerate locators.
type locatorLister interface {
	Locators() []string
}

// Validate checks cmd without running it.
func (c *Coordinator) Validate(cmd Command) ValidationResult {
	var res ValidationResult

	switch {
	case cmd.Action == "":
		res.Errors = append(res.Errors, "action is required")
	case !slices.Contains(Actions(), cmd.Action):
		res.Errors = append(res.Errors, fmt.Sprintf("unknown action %q", cmd.Action))
		names := make([]string, 0, len(Actions()))
		for _, a := range Actions() {
			names = append(names, string(a))
		}
		for _, s := range closest(string(cmd.Action), names) {
			res.Suggestions = append(res.Suggestions, fmt.Sprintf("did you mean action %q?", s))
		}
	}

	switch {
	case cmd.Target == "":
		res.Errors = append(res.Errors, "target is required")
	case len(c.env.Resolve(cmd.Target)) == 0:
		res.Errors = append(res.Errors, fmt.Sprintf("target %q not found", cmd.Target))
		if lister, ok := c.env.(locatorLister); ok {
			for _, s := range closest(cmd.Target, lister.Locators()) {
				res.Suggestions = append(res.Suggestions, fmt.Sprintf("did you mean target %q?", s))
			}
		}
	}

	if cmd.Duration < 0 {
		res.Errors = append(res.Errors, "duration must not be negative")
	}
	if err := cmd.Options.Validate(); err != nil {
		res.Errors = append(res.Errors, err.Error())
	}

	if cmd.Priority != queue.PriorityOverride && c.busy() {
		res.Warnings = append(res.Warnings, "an animation is in progress; the command will wait for it")
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// closest returns up to maxSuggestions candidates within a small edit
// distance of input, nearest first.
func closest(input string, candidates []string) []string {
	limit := max(2, len(input)/3)

	type scored struct {
		value string
		dist  int
	}
	var hits []scored
	for _, cand := range candidates {
		if cand == input {
			continue
		}
		if d := levenshtein.ComputeDistance(input, cand); d <= limit {
			hits = append(hits, scored{value: cand, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].value < hits[j].value
	})

	out := make([]string, 0, min(len(hits), maxSuggestions))
	for i := 0; i < len(hits) && i < maxSuggestions; i++ {
		out = append(out, hits[i].value)
	}
	return out
}
