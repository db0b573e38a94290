package credentials

import (
	"io"
	"strings"

	"github.com/tcnksm/go-input"

	"CommunityScanner/internal/ports"
)

// Prompter asks questions on a terminal until a non-empty answer is given.
type Prompter struct {
	ui *input.UI
}

var _ ports.Prompter = (*Prompter)(nil)

// NewTerminalPrompter reads stdin and writes to stdout.
func NewTerminalPrompter() *Prompter {
	return &Prompter{ui: input.DefaultUI()}
}

// NewPrompter reads answers from r. Masked answers need r to be a terminal file.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{ui: &input.UI{Reader: r, Writer: w}}
}

// Ask implements ports.Prompter.
func (p *Prompter) Ask(query string, secret bool) (string, error) {
	answer, err := p.ui.Ask(query, &input.Options{
		Required:  true,
		Loop:      true,
		Mask:      secret,
		HideOrder: true,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
