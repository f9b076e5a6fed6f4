// Package prompt asks the user to confirm or correct metadata detected for a
// new content file.
package prompt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/keneslab/sitegen/internal/metadata"
)

// Prompter reviews auto-detected metadata and returns the record to store.
type Prompter interface {
	Review(ctx context.Context, auto metadata.Post) (metadata.Post, error)
}

type field int

const (
	fieldConfirm field = iota
	fieldTitle
	fieldDate
	fieldAuthor
	fieldDescription
	fieldRoute
	fieldKeywords
	fieldImage
)

// Question is one step of the review flow.
type Question struct {
	Label   string
	Default string
}

// Prompt renders the question the way the line prompter prints it.
func (q Question) Prompt() string {
	if q.Default == "" {
		return q.Label + ": "
	}
	return fmt.Sprintf("%s [%s]: ", q.Label, q.Default)
}

// session walks the fixed question sequence. Declining the detected values
// inserts the manual fields; keywords and image are always asked.
type session struct {
	post         metadata.Post
	imagePattern string
	queue        []field
}

func newSession(auto metadata.Post, imagePattern string) *session {
	return &session{
		post:         auto,
		imagePattern: imagePattern,
		queue:        []field{fieldConfirm, fieldKeywords, fieldImage},
	}
}

func (s *session) done() bool { return len(s.queue) == 0 }

func (s *session) current() Question {
	p := s.post
	switch s.queue[0] {
	case fieldConfirm:
		return Question{Label: "Use auto-detected metadata? (y/n, default: y)"}
	case fieldTitle:
		return Question{Label: "Title", Default: p.Title}
	case fieldDate:
		return Question{Label: "Date (YYYY-MM-DD)", Default: p.Date}
	case fieldAuthor:
		return Question{Label: "Author", Default: p.Author}
	case fieldDescription:
		return Question{Label: "Description", Default: p.Description}
	case fieldRoute:
		return Question{Label: "Route", Default: p.Route}
	case fieldKeywords:
		return Question{Label: "Keywords (comma separated)", Default: p.Keywords}
	default:
		return Question{Label: "OG image path", Default: s.defaultImage()}
	}
}

func (s *session) defaultImage() string {
	if s.post.Image != "" {
		return s.post.Image
	}
	return metadata.DefaultImage(s.imagePattern, s.post.Route)
}

// answer records v for the current question and advances. An empty answer
// keeps the default. Invalid input leaves the question pending.
func (s *session) answer(v string) error {
	v = strings.TrimSpace(v)
	f := s.queue[0]
	if v == "" {
		v = s.current().Default
	}

	switch f {
	case fieldConfirm:
		if strings.EqualFold(v, "n") {
			s.queue = append([]field{fieldConfirm, fieldTitle, fieldDate, fieldAuthor, fieldDescription, fieldRoute}, s.queue[1:]...)
		}
	case fieldTitle:
		s.post.Title = v
	case fieldDate:
		if v != "" {
			if _, err := time.Parse(metadata.DateLayout, v); err != nil {
				return fmt.Errorf("date %q is not YYYY-MM-DD", v)
			}
		}
		s.post.Date = v
	case fieldAuthor:
		s.post.Author = v
	case fieldDescription:
		s.post.Description = v
	case fieldRoute:
		route := metadata.NormalizeRoute(v)
		if msg := metadata.RouteProblem(route); msg != "" {
			return fmt.Errorf("%s", msg)
		}
		s.post.Route = route
	case fieldKeywords:
		s.post.Keywords = v
	case fieldImage:
		s.post.Image = v
	}
	s.queue = s.queue[1:]
	return nil
}

// Summary lists the detected values shown before the first question.
func Summary(p metadata.Post) []string {
	orNotFound := func(v string) string {
		if v == "" {
			return "(not found)"
		}
		return v
	}
	return []string{
		"Title: " + orNotFound(p.Title),
		"Date: " + orNotFound(p.Date),
		"Author: " + p.Author,
		"Description: " + orNotFound(p.Description),
		"Route: " + p.Route,
	}
}

// Accept keeps the detected metadata without asking, filling the default
// image the way an empty interactive answer would.
type Accept struct {
	ImagePattern string
}

func (a Accept) Review(ctx context.Context, auto metadata.Post) (metadata.Post, error) {
	if err := ctx.Err(); err != nil {
		return metadata.Post{}, err
	}
	if auto.Image == "" {
		auto.Image = metadata.DefaultImage(a.ImagePattern, auto.Route)
	}
	return auto, nil
}
