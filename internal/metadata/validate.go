package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// Problem describes one invalid record.
type Problem struct {
	Index   int
	Route   string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("post %d (%s): %s", p.Index, p.Route, p.Message)
}

// Validate checks every record and returns all problems found. Routes must be
// unique because each one names an output file; a collision would silently
// overwrite another post's page.
func Validate(posts []Post) []Problem {
	var problems []Problem
	firstByRoute := make(map[string]int, len(posts))

	for i, p := range posts {
		add := func(format string, args ...any) {
			problems = append(problems, Problem{Index: i, Route: p.Route, Message: fmt.Sprintf(format, args...)})
		}

		if strings.TrimSpace(p.Filename) == "" {
			add("filename is empty")
		}
		if msg := RouteProblem(p.Route); msg != "" {
			add("%s", msg)
		} else {
			key := NormalizeRoute(p.Route)
			if j, dup := firstByRoute[key]; dup {
				add("route %q already used by post %d", p.Route, j)
			} else {
				firstByRoute[key] = i
			}
		}
		if p.Date != "" && !validDate(p.Date) {
			add("date %q is not YYYY-MM-DD", p.Date)
		}
		if p.DateModified != "" && !validDate(p.DateModified) {
			add("dateModified %q is not YYYY-MM-DD", p.DateModified)
		}
	}
	return problems
}

// ValidationError folds problems into a classified validation error, or nil.
func ValidationError(problems []Problem) error {
	if len(problems) == 0 {
		return nil
	}
	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.String()
	}
	return errors.ValidationError(fmt.Sprintf("metadata has %d invalid record(s)", len(problems))).
		WithContext("problems", strings.Join(lines, "; ")).
		Build()
}

// RouteProblem describes why route cannot name an output page, or returns ""
// when it is a single safe path segment.
func RouteProblem(route string) string {
	switch {
	case strings.TrimSpace(route) == "":
		return "route is empty"
	case !safeRoute(route):
		return fmt.Sprintf("route %q must be a single path segment", route)
	}
	return ""
}

func safeRoute(route string) bool {
	if route == "." || route == ".." {
		return false
	}
	return !strings.ContainsAny(route, `/\`) && !strings.Contains(route, "..") && !strings.HasPrefix(route, ".")
}

func validDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// RefreshModified moves dateModified to today for posts whose content
// fingerprint changed since the last run, and fills a missing dateModified.
// Posts with an unchanged fingerprint are left untouched so a rerun over the
// same inputs produces the same metadata. fingerprints is keyed by route;
// posts without an entry are skipped.
func RefreshModified(posts []Post, fingerprints map[string]string, today string) bool {
	changed := false
	for i := range posts {
		fp, ok := fingerprints[posts[i].Route]
		if !ok {
			continue
		}
		if posts[i].Fingerprint != fp {
			if posts[i].Fingerprint != "" || posts[i].DateModified == "" {
				posts[i].DateModified = today
			}
			posts[i].Fingerprint = fp
			changed = true
			continue
		}
		if posts[i].DateModified == "" {
			posts[i].DateModified = today
			changed = true
		}
	}
	return changed
}
