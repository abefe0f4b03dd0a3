package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/propertyshodh/shodh/pkg/catalog"
	"github.com/propertyshodh/shodh/pkg/summary"
	"github.com/propertyshodh/shodh/pkg/wizard"
)

var commandNames = []string{"back", "reset", "status", "skip", "toggle", "done", "submit", "help", "quit"}

// Exec handles one line of input and reports whether the session should end.
// Commands are matched first; anything else answers the current question.
func (s *Session) Exec(ctx context.Context, line string) (quit bool) {
	line = trimLine(line)
	if line == "" {
		return false
	}
	defer s.flushWarnings()

	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case "quit", "q", "exit":
		fmt.Fprintf(s.output, "Your answers are saved as a draft. Bye!\n")
		return true
	case "help", "?":
		s.handleHelp()
	case "back", "b":
		s.handleBack()
	case "reset":
		s.engine.Reset()
		fmt.Fprintf(s.output, "Starting over.\n")
		s.ask()
	case "status":
		s.handleStatus()
	case "skip":
		s.report(s.engine.SubmitAnswer(""))
	case "toggle", "t":
		s.handleToggle(strings.TrimSpace(arg))
	case "done":
		s.handleDone(ctx)
	case "submit":
		s.handleSubmit(ctx)
	default:
		s.handleAnswer(line)
	}
	return false
}

func (s *Session) handleHelp() {
	fmt.Fprintf(s.output, `Commands:
  back          Go to the previous question
  skip          Leave an optional question blank
  toggle <n>    Select or unselect option n on a multiple-choice question
  done          Confirm a multiple-choice selection
  status        Show your answers so far
  reset         Discard every answer and start again
  submit        Post the listing once every question is answered
  help          Show this help
  quit          Leave; your draft is kept
Anything else answers the current question. Options can be picked by number.
`)
}

func (s *Session) handleBack() {
	if !s.engine.GoBack() {
		fmt.Fprintf(s.output, "You are at the first question.\n")
		return
	}
	s.ask()
}

func (s *Session) handleStatus() {
	steps := s.engine.Steps()
	if s.engine.Complete() {
		fmt.Fprintf(s.output, "All %d questions answered.\n", len(steps))
	} else {
		fmt.Fprintf(s.output, "Question %d of %d.\n", s.engine.Index()+1, len(steps))
	}
	fmt.Fprint(s.output, summary.Render(s.engine.Catalog(), s.engine.Answers(), 78))
}

func (s *Session) handleToggle(arg string) {
	if arg == "" {
		fmt.Fprintf(s.output, "Usage: toggle <option number or name>\n")
		return
	}
	if err := s.engine.ToggleOption(s.resolveOption(arg)); err != nil {
		fmt.Fprintf(s.output, "  ⚠ %v\n", err)
		return
	}
	s.showPending()
}

func (s *Session) handleDone(ctx context.Context) {
	cur, ok := s.engine.CurrentStep()
	switch {
	case !ok:
		s.handleSubmit(ctx)
	case cur.Kind == catalog.KindMultiSelect:
		s.report(s.engine.ConfirmMultiSelect())
	case cur.Kind == catalog.KindDerivedSummary:
		s.report(s.engine.SubmitAnswer(nil))
	default:
		fmt.Fprintf(s.output, "Please answer the question first.\n")
	}
}

func (s *Session) handleSubmit(ctx context.Context) {
	if !s.engine.Complete() {
		fmt.Fprintf(s.output, "Not yet: there are unanswered questions.\n")
		s.ask()
		return
	}
	if s.recordID != "" {
		fmt.Fprintf(s.output, "Already submitted as %s.\n", s.recordID)
		return
	}
	if s.submit == nil {
		fmt.Fprintf(s.output, "Submission is not configured; your draft is saved.\n")
		return
	}
	id, err := s.submit(ctx, s.engine)
	if err != nil {
		fmt.Fprintf(s.output, "Could not submit: %v\nYour answers are kept; type submit to try again.\n", err)
		return
	}
	s.recordID = id
	fmt.Fprintf(s.output, "Your listing was submitted for review (reference %s).\n", id)
}

func (s *Session) handleAnswer(line string) {
	cur, ok := s.engine.CurrentStep()
	if !ok {
		fmt.Fprintf(s.output, "Every question is answered. Type submit to post, or back to change something.\n")
		return
	}
	switch cur.Kind {
	case catalog.KindSingleSelect:
		s.report(s.engine.SubmitAnswer(s.resolveOption(line)))
	case catalog.KindMultiSelect:
		parts := strings.Split(line, ",")
		picked := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				picked = append(picked, s.resolveOption(p))
			}
		}
		s.report(s.engine.SubmitAnswer(picked))
	case catalog.KindDerivedSummary:
		switch strings.ToLower(line) {
		case "y", "yes", "ok", "confirm":
			s.report(s.engine.SubmitAnswer(nil))
		default:
			fmt.Fprintf(s.output, "Type yes to confirm, or back to change something.\n")
		}
	default:
		s.report(s.engine.SubmitAnswer(line))
	}
}

// resolveOption maps an option number to its value.
func (s *Session) resolveOption(in string) string {
	n, err := strconv.Atoi(strings.TrimSpace(in))
	if err != nil {
		return in
	}
	opts := s.engine.Options()
	if n >= 1 && n <= len(opts) {
		return opts[n-1].Val()
	}
	return in
}

func (s *Session) report(out wizard.Outcome) {
	switch out.Status {
	case wizard.Invalid:
		fmt.Fprintf(s.output, "  ⚠ %s\n", out.Reason)
	case wizard.Advanced:
		s.ask()
	case wizard.Completed:
		fmt.Fprintf(s.output, "\nThat's everything. Here is your listing:\n\n")
		fmt.Fprint(s.output, summary.Render(s.engine.Catalog(), s.engine.Answers(), 78))
		fmt.Fprintf(s.output, "\nType submit to post it, or back to change something.\n")
	}
}

// ask prints the current question with its options.
func (s *Session) ask() {
	cur, ok := s.engine.CurrentStep()
	if !ok {
		return
	}
	text := cur.PromptFor(s.locale)
	if text == cur.Prompt {
		text = s.prompt(text)
	}
	fmt.Fprintf(s.output, "\n%s\n", text)
	if cur.Help != "" {
		fmt.Fprintf(s.output, "  %s\n", cur.Help)
	}

	switch cur.Kind {
	case catalog.KindSingleSelect, catalog.KindMultiSelect:
		for i, o := range s.engine.Options() {
			fmt.Fprintf(s.output, "  %d. %s\n", i+1, o.Label)
		}
		if cur.Kind == catalog.KindMultiSelect {
			fmt.Fprintf(s.output, "  (pick several, e.g. 1,3, or toggle <n> then done)\n")
		}
	case catalog.KindDerivedSummary:
		fmt.Fprint(s.output, summary.Render(s.engine.Catalog(), s.engine.Answers(), 78))
		fmt.Fprintf(s.output, "Does this look right? (yes / back)\n")
	}
	if v, ok := s.engine.Answer(cur.ID); ok && cur.Kind != catalog.KindDerivedSummary {
		fmt.Fprintf(s.output, "  (current answer: %s)\n", catalog.FormatValue(v))
	}
	if !cur.Required && cur.Kind != catalog.KindDerivedSummary {
		fmt.Fprintf(s.output, "  (optional: type skip to leave blank)\n")
	}
}

func (s *Session) showPending() {
	pending := s.engine.Pending()
	if len(pending) == 0 {
		fmt.Fprintf(s.output, "  Nothing selected yet.\n")
		return
	}
	fmt.Fprintf(s.output, "  Selected: %s (type done to continue)\n", strings.Join(pending, ", "))
}
