// Package setup implements the interactive configuration wizard. A
// wizard walks a user through a set of typed questions, shows a summary
// of the answers collected so far and gates submission on the required
// answers being present. The Discord rendering lives behind the Prompter
// interface so the flow itself stays platform neutral.
package setup

// QuestionType identifies how a question is asked and validated
type QuestionType int

const (
	TypeText QuestionType = iota
	TypeNumber
	TypeBoolean
	TypeChannel
	TypeCategory
	TypeRole
	TypeRoles
	TypeSelect
	TypeMultiSelect
	TypeButtonStyle
	TypeGroup
)

// DefaultMaxLength bounds free-text answers when a question sets no limit
const DefaultMaxLength = 100

// Option is one selectable choice of a select question
type Option struct {
	Label string
	Value string
}

// Question describes one field collected by the wizard
type Question struct {
	// Key addresses the answer in the result map
	Key string

	// Label is the display name shown on the summary and prompts
	Label string

	// Description is extra help text shown when asking
	Description string

	Type QuestionType

	// Required answers gate submission
	Required bool

	// ReadOnly questions appear on the summary but cannot be edited
	ReadOnly bool

	// Options populate select questions
	Options []Option

	// MaxLength overrides DefaultMaxLength for text questions
	MaxLength int

	// Children holds the nested questions of a group
	Children []Question
}

// Answers maps question keys to collected values. Value types by
// question type: string for text/channel/category/role/select/button
// style, int64 for number, bool for boolean, []string for roles and
// multi select, Answers for group.
type Answers map[string]any

// Clone returns a shallow copy with nested group answers copied too
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if nested, ok := v.(Answers); ok {
			out[k] = nested.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// IsAnswered reports whether the question has a usable answer. Booleans
// always count as answered since false is a valid value; list answers
// must hold at least one element.
func IsAnswered(q Question, answers Answers) bool {
	value, ok := answers[q.Key]
	if !ok {
		return false
	}

	switch q.Type {
	case TypeText, TypeChannel, TypeCategory, TypeRole, TypeSelect, TypeButtonStyle:
		s, ok := value.(string)
		return ok && s != ""
	case TypeRoles, TypeMultiSelect:
		list, ok := value.([]string)
		return ok && len(list) > 0
	case TypeGroup:
		nested, ok := value.(Answers)
		if !ok {
			return false
		}
		for _, child := range q.Children {
			if child.Required && !IsAnswered(child, nested) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// seedDefaults pre-fills the answers a question owns before the first
// summary render: booleans start false, list answers start empty.
func seedDefaults(questions []Question, answers Answers) {
	for _, q := range questions {
		if _, ok := answers[q.Key]; ok {
			continue
		}
		switch q.Type {
		case TypeBoolean:
			answers[q.Key] = false
		case TypeRoles, TypeMultiSelect:
			answers[q.Key] = []string{}
		case TypeGroup:
			nested := Answers{}
			seedDefaults(q.Children, nested)
			answers[q.Key] = nested
		}
	}
}
