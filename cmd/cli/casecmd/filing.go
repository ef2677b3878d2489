package casecmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/justibot/justibot/internal/api"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/workflow"
)

// ErrAborted is returned when the citizen quits before the case is finalized.
var ErrAborted = errors.NewSentinel("filing aborted")

// Filing renders the workflow as a line-based conversation on a terminal.
type Filing struct {
	in         *bufio.Scanner
	out        io.Writer
	controller *workflow.Controller
}

func NewFiling(in io.Reader, out io.Writer, controller *workflow.Controller) *Filing {
	return &Filing{in: bufio.NewScanner(in), out: out, controller: controller}
}

// Run walks the workflow until the case is completed.
func (f *Filing) Run(ctx context.Context) error {
	for {
		var err error
		switch s := f.controller.State().(type) {
		case workflow.Intro:
			f.printf("JustiBot drafts an Acción de Tutela or a Derecho de Petición from your own words.\n\n")
			err = f.controller.Begin()
		case workflow.TypeSelection:
			err = f.selectCategory()
		case workflow.Facts:
			err = f.describe(s)
		case workflow.GeneratingDraft:
			f.printf("Generating your draft, this can take a minute...\n")
			if genErr := f.controller.GenerateDraft(ctx); genErr != nil && ctx.Err() != nil {
				err = genErr
			}
		case workflow.Preview:
			err = f.review(s)
		case workflow.Identity:
			err = f.identify(ctx, s)
		case workflow.Completed:
			f.printf("\nYour %s is ready: %s\n", s.Case.Category.DocumentTitle(), s.Case.DocumentReference)
			f.printf("Download it with: justibot-cli download %s\n", s.Case.DocumentReference)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (f *Filing) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(f.out, format, args...)
}

func (f *Filing) printFailure(lastError *failure.Failure) {
	if lastError == nil {
		return
	}
	f.printf("! %s\n", lastError.Message)
	for _, p := range lastError.Fields {
		f.printf("  - %s %s\n", p.Field, p.Problem)
	}
}

// ask prompts and reads one trimmed line. A closed input aborts the filing.
func (f *Filing) ask(prompt string) (string, error) {
	f.printf("%s", prompt)
	if !f.in.Scan() {
		if err := f.in.Err(); err != nil {
			return "", errors.Wrap(err, "read input")
		}
		return "", ErrAborted
	}
	return strings.TrimSpace(f.in.Text()), nil
}

func (f *Filing) selectCategory() error {
	categories := models.Categories()
	f.printf("What do you need?\n")
	for i, c := range categories {
		f.printf("  %d) %s (%s)\n", i+1, c.DocumentTitle(), c)
	}
	answer, err := f.ask("Choose a number: ")
	if err != nil {
		return err
	}
	category := models.Category(answer)
	if n, convErr := strconv.Atoi(answer); convErr == nil && n >= 1 && n <= len(categories) {
		category = categories[n-1]
	}
	if err = f.controller.SelectCategory(category); err != nil {
		if errors.Is(err, models.ErrValidation) {
			f.printf("! Please choose one of the listed numbers.\n")
			return nil
		}
		return err //nolint:wrapcheck // annotated by the controller
	}
	return nil
}

func (f *Filing) describe(s workflow.Facts) error {
	f.printFailure(s.LastError)
	prompt := "Describe what happened: "
	if s.Description != "" {
		f.printf("Current description: %s\n", s.Description)
		prompt = "Describe what happened (leave empty to keep the current description): "
	}
	answer, err := f.ask(prompt)
	if err != nil {
		return err
	}
	if answer == "" {
		answer = s.Description
	}
	if err = f.controller.SubmitFacts(answer); err != nil && !errors.Is(err, models.ErrValidation) {
		return err //nolint:wrapcheck // annotated by the controller
	}
	return nil
}

func (f *Filing) review(s workflow.Preview) error {
	f.printf("\n%s\n\n%s\n\n", s.Case.Category.DocumentTitle(), s.Case.GeneratedText)
	for {
		answer, err := f.ask("[a]ccept, [r]evise the facts or [q]uit: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "a", "accept":
			return f.controller.AcceptDraft() //nolint:wrapcheck // annotated by the controller
		case "r", "revise":
			return f.controller.ReviseFacts() //nolint:wrapcheck // annotated by the controller
		case "q", "quit":
			return ErrAborted
		}
	}
}

func (f *Filing) identify(ctx context.Context, s workflow.Identity) error {
	f.printFailure(s.LastError)
	f.printf("The document will be signed with your identity.\n")
	var (
		req api.IdentityRequest
		err error
	)
	if req.CitizenName, err = f.ask("Full name: "); err != nil {
		return err
	}
	if req.NationalID, err = f.ask("Cédula number: "); err != nil {
		return err
	}
	if req.City, err = f.ask("City: "); err != nil {
		return err
	}
	if req.Email, err = f.ask("Email (optional): "); err != nil {
		return err
	}
	if err = f.controller.SubmitIdentity(ctx, req.Identity()); err != nil && ctx.Err() != nil {
		return err //nolint:wrapcheck // annotated by the controller
	}
	return nil
}
