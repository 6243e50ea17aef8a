package setup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"krypton/models"
)

// ActionType is what the user chose on a summary screen
type ActionType int

const (
	// ActionEdit selects a question to answer
	ActionEdit ActionType = iota
	// ActionSubmit finishes the wizard
	ActionSubmit
	// ActionCancel abandons the wizard
	ActionCancel
)

// Action is the user's choice on a summary screen
type Action struct {
	Type ActionType

	// Key of the question to edit when Type is ActionEdit
	Key string
}

// Summary is the state handed to the prompter for rendering
type Summary struct {
	Title     string
	Questions []Question
	Answers   Answers

	// CanSubmit is true when every required question is answered
	CanSubmit bool
}

// Prompter renders wizard screens and collects responses. Every method
// blocks until the user responds or the response window elapses, in
// which case it returns models.ErrTimeout.
type Prompter interface {
	// ShowSummary renders the collected answers and returns the user's
	// next action
	ShowSummary(ctx context.Context, summary Summary) (Action, error)

	// AskText collects a free-form text answer
	AskText(ctx context.Context, question Question, current string) (string, error)

	// AskBoolean collects a yes/no answer
	AskBoolean(ctx context.Context, question Question, current bool) (bool, error)

	// AskChannel collects a channel id; category is true when a category
	// channel is wanted
	AskChannel(ctx context.Context, question Question, category bool) (string, error)

	// AskRole collects a single role id
	AskRole(ctx context.Context, question Question) (string, error)

	// AskRoles collects any number of role ids
	AskRoles(ctx context.Context, question Question, current []string) ([]string, error)

	// AskSelect collects one or several options
	AskSelect(ctx context.Context, question Question, multi bool, current []string) ([]string, error)

	// AskButtonStyle collects a button style name
	AskButtonStyle(ctx context.Context, question Question, current string) (string, error)

	// Reject tells the user their last input was invalid and why
	Reject(ctx context.Context, reason string) error
}

// Wizard drives a question set to completion
type Wizard struct {
	title     string
	questions []Question
	prompter  Prompter
}

// New creates a wizard over the given questions
func New(title string, questions []Question, prompter Prompter) *Wizard {
	return &Wizard{title: title, questions: questions, prompter: prompter}
}

// Run collects answers until the user submits or cancels. The initial
// answers pre-populate the summary, letting callers reopen an existing
// configuration for editing. On timeout the answers collected so far are
// returned alongside models.ErrTimeout so callers can decide whether to
// keep them. Cancelling returns nil answers and no error.
func (w *Wizard) Run(ctx context.Context, initial Answers) (Answers, error) {
	answers := initial.Clone()
	if answers == nil {
		answers = Answers{}
	}
	seedDefaults(w.questions, answers)

	// A single-question wizard needs no summary loop
	if len(w.questions) == 1 && !w.questions[0].ReadOnly {
		question := w.questions[0]
		for {
			if err := w.askUntilValid(ctx, question, answers); err != nil {
				return answers, err
			}
			if !question.Required || IsAnswered(question, answers) {
				return answers, nil
			}
			if err := w.prompter.Reject(ctx, fmt.Sprintf("%s is required", question.Label)); err != nil {
				return answers, err
			}
		}
	}

	for {
		summary := Summary{
			Title:     w.title,
			Questions: w.questions,
			Answers:   answers,
			CanSubmit: w.complete(answers),
		}

		action, err := w.prompter.ShowSummary(ctx, summary)
		if err != nil {
			return answers, err
		}

		switch action.Type {
		case ActionSubmit:
			if !w.complete(answers) {
				if err := w.prompter.Reject(ctx, "answer all required fields before submitting"); err != nil {
					return answers, err
				}
				continue
			}
			return answers, nil

		case ActionCancel:
			return nil, nil

		case ActionEdit:
			question, ok := w.findQuestion(action.Key)
			if !ok || question.ReadOnly {
				if err := w.prompter.Reject(ctx, fmt.Sprintf("%q cannot be edited", action.Key)); err != nil {
					return answers, err
				}
				continue
			}
			if err := w.askUntilValid(ctx, question, answers); err != nil {
				return answers, err
			}
		}
	}
}

func (w *Wizard) findQuestion(key string) (Question, bool) {
	for _, q := range w.questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

func (w *Wizard) complete(answers Answers) bool {
	for _, q := range w.questions {
		if q.Required && !IsAnswered(q, answers) {
			return false
		}
	}
	return true
}

// askUntilValid prompts for one question and validates the response.
// Invalid input is rejected with a reason and the prompt repeats; the
// previous answer stays in place until a valid one replaces it.
func (w *Wizard) askUntilValid(ctx context.Context, question Question, answers Answers) error {
	for {
		value, err := w.ask(ctx, question, answers)
		if err != nil {
			return err
		}

		validated, reason := validate(question, value)
		if reason != "" {
			if err := w.prompter.Reject(ctx, reason); err != nil {
				return err
			}
			continue
		}

		answers[question.Key] = validated
		return nil
	}
}

func (w *Wizard) ask(ctx context.Context, question Question, answers Answers) (any, error) {
	current := answers[question.Key]

	switch question.Type {
	case TypeText, TypeNumber:
		s, _ := current.(string)
		if n, ok := current.(int64); ok {
			s = strconv.FormatInt(n, 10)
		}
		return w.prompter.AskText(ctx, question, s)

	case TypeBoolean:
		b, _ := current.(bool)
		return w.prompter.AskBoolean(ctx, question, b)

	case TypeChannel:
		return w.prompter.AskChannel(ctx, question, false)

	case TypeCategory:
		return w.prompter.AskChannel(ctx, question, true)

	case TypeRole:
		return w.prompter.AskRole(ctx, question)

	case TypeRoles:
		roles, _ := current.([]string)
		return w.prompter.AskRoles(ctx, question, roles)

	case TypeSelect:
		var selected []string
		if s, ok := current.(string); ok && s != "" {
			selected = []string{s}
		}
		values, err := w.prompter.AskSelect(ctx, question, false, selected)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			return "", nil
		}
		return values[0], nil

	case TypeMultiSelect:
		selected, _ := current.([]string)
		return w.prompter.AskSelect(ctx, question, true, selected)

	case TypeButtonStyle:
		s, _ := current.(string)
		return w.prompter.AskButtonStyle(ctx, question, s)

	case TypeGroup:
		nested, _ := current.(Answers)
		sub := New(question.Label, question.Children, w.prompter)
		result, err := sub.Run(ctx, nested)
		if err != nil {
			return nil, err
		}
		if result == nil {
			// Nested cancel keeps the previous group answers
			return nested, nil
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported question type %d", question.Type)
	}
}

// validate normalizes a raw response. A non-empty reason means the input
// was rejected.
func validate(question Question, value any) (any, string) {
	switch question.Type {
	case TypeText:
		s, _ := value.(string)
		s = strings.TrimSpace(s)
		limit := question.MaxLength
		if limit == 0 {
			limit = DefaultMaxLength
		}
		if utf8.RuneCountInString(s) > limit {
			return nil, fmt.Sprintf("%s must be at most %d characters", question.Label, limit)
		}
		return s, ""

	case TypeNumber:
		s, _ := value.(string)
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Sprintf("%s must be a whole number", question.Label)
		}
		return n, ""

	default:
		return value, ""
	}
}

// IsTimeout reports whether the wizard stopped because the response
// window elapsed
func IsTimeout(err error) bool {
	return errors.Is(err, models.ErrTimeout)
}
