// Package confirm asks the operator to approve a copy before anything is
// written.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDeclined is returned when the operator does not answer "y".
var ErrDeclined = errors.New("copy declined by operator")

// Prompt describes what is about to be copied.
type Prompt struct {
	Source      fmt.Stringer
	Destination fmt.Stringer
	ChunkSize   string
}

// Gate asks a single yes/no question on Out and reads the answer from In.
type Gate struct {
	In  io.Reader
	Out io.Writer
	// AssumeYes prints the prompt but answers it affirmatively.
	AssumeYes bool
}

// Ask prints the prompt and returns nil only for a case-insensitive "y".
// Empty input, end of input and every other answer yield ErrDeclined.
func (g Gate) Ask(p Prompt) error {
	fmt.Fprintf(g.Out, "Source:      %s\n", p.Source)
	fmt.Fprintf(g.Out, "Destination: %s\n", p.Destination)
	if p.ChunkSize != "" {
		fmt.Fprintf(g.Out, "Chunk size:  %s\n", p.ChunkSize)
	}
	fmt.Fprint(g.Out, "All data on the destination will be overwritten. Proceed? [y/N] ")

	if g.AssumeYes {
		fmt.Fprintln(g.Out, "y")
		return nil
	}

	answer, err := bufio.NewReader(g.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	if !Affirmative(answer) {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(g.Out)
		}
		return ErrDeclined
	}
	return nil
}

// Affirmative reports whether answer is "y" in any case, ignoring
// surrounding whitespace.
func Affirmative(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
