package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/keneslab/sitegen/internal/metadata"
)

// Line asks each question on its own line. It reads answers from any reader,
// so it also works with piped stdin. End of input answers every remaining
// question with its default.
type Line struct {
	in           *bufio.Reader
	out          io.Writer
	imagePattern string
	eof          bool
}

// NewLine creates a line prompter.
func NewLine(in io.Reader, out io.Writer, imagePattern string) *Line {
	return &Line{in: bufio.NewReader(in), out: out, imagePattern: imagePattern}
}

func (l *Line) Review(ctx context.Context, auto metadata.Post) (metadata.Post, error) {
	fmt.Fprintln(l.out, "\nAuto-detected metadata:")
	for _, line := range Summary(auto) {
		fmt.Fprintf(l.out, "   %s\n", line)
	}
	fmt.Fprintln(l.out)

	s := newSession(auto, l.imagePattern)
	for !s.done() {
		if err := ctx.Err(); err != nil {
			return metadata.Post{}, err
		}
		fmt.Fprint(l.out, s.current().Prompt())
		v, err := l.readLine()
		if err != nil {
			return metadata.Post{}, err
		}
		if err := s.answer(v); err != nil {
			fmt.Fprintf(l.out, "  %v\n", err)
			if l.eof {
				return metadata.Post{}, err
			}
		}
	}
	return s.post, nil
}

func (l *Line) readLine() (string, error) {
	if l.eof {
		fmt.Fprintln(l.out)
		return "", nil
	}
	v, err := l.in.ReadString('\n')
	if err == io.EOF {
		l.eof = true
		if v == "" {
			fmt.Fprintln(l.out)
		}
		return strings.TrimRight(v, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(v, "\r\n"), nil
}
