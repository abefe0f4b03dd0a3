// Package chat implements the conversational front-end: the wizard asks one
// question at a time in a readline REPL and typed replies become answers.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/propertyshodh/shodh/pkg/localize"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

// Session is one conversational listing session.
type Session struct {
	engine   *wizard.Engine
	output   io.Writer
	locale   string
	loc      localize.Localizer
	submit   func(ctx context.Context, e *wizard.Engine) (string, error)
	recordID string
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sends session output to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) { s.output = w }
}

// WithLocale asks questions in tag, translating through l when the catalog
// carries no translation.
func WithLocale(tag string, l localize.Localizer) Option {
	return func(s *Session) { s.locale, s.loc = tag, l }
}

// WithSubmit sets the function run by the submit command.
func WithSubmit(fn func(ctx context.Context, e *wizard.Engine) (string, error)) Option {
	return func(s *Session) { s.submit = fn }
}

// New creates a session over e.
func New(e *wizard.Engine, opts ...Option) *Session {
	s := &Session{engine: e, output: os.Stdout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RecordID returns the id of the submitted listing, if any.
func (s *Session) RecordID() string { return s.recordID }

// Run starts the interactive loop. It returns nil on quit, Ctrl-C or EOF.
func (s *Session) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter()
	for _, c := range commandNames {
		completer.Children = append(completer.Children, readline.PcItem(c))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.buildPrompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          s.output,
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	title := s.engine.Catalog().Meta().Title
	if title == "" {
		title = s.engine.Catalog().Name()
	}
	fmt.Fprintf(s.output, "%s: %d questions. Type 'help' for commands.\n\n", title, len(s.engine.Steps()))
	s.ask()

	for {
		rl.SetPrompt(s.buildPrompt())
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if quit := s.Exec(ctx, line); quit {
			return nil
		}
	}
}

// buildPrompt creates the prompt string: shodh[N/total | step_id]>
func (s *Session) buildPrompt() string {
	cur, ok := s.engine.CurrentStep()
	if !ok {
		return "shodh[review]> "
	}
	return fmt.Sprintf("shodh[%d/%d | %s]> ", s.engine.Index()+1, len(s.engine.Steps()), cur.ID)
}

func (s *Session) prompt(text string) string {
	return localize.BestEffort(context.Background(), s.loc, text, s.locale, 500*time.Millisecond)
}

func (s *Session) flushWarnings() {
	for _, w := range s.engine.Warnings() {
		fmt.Fprintf(s.output, "  (your progress could not be saved: %v)\n", w.Err)
	}
}

func trimLine(line string) string {
	return strings.TrimSpace(strings.TrimRight(line, "\r\n"))
}
