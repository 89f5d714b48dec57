// Package command post-processes recognized text for spoken commands.
//
// Two kinds of commands exist: text commands ("period", "new line") are
// replaced inline with the punctuation or whitespace they name, and action
// commands ("delete that", "select all") are stripped into a separate action
// list for the caller to dispatch to its editing surface.
package command

import (
	"regexp"
	"sort"
	"strings"
)

// textCommands maps spoken phrases to their literal replacements.
var textCommands = map[string]string{
	// Punctuation
	"period":            ".",
	"full stop":         ".",
	"comma":             ",",
	"question mark":     "?",
	"exclamation mark":  "!",
	"exclamation point": "!",
	"colon":             ":",
	"semicolon":         ";",
	"apostrophe":        "'",
	"quote":             `"`,
	"open quote":        `"`,
	"close quote":       `"`,
	"open parenthesis":  "(",
	"close parenthesis": ")",
	"open bracket":      "[",
	"close bracket":     "]",
	"hyphen":            "-",
	"dash":              "-",
	"underscore":        "_",
	"at sign":           "@",
	"hash":              "#",
	"hashtag":           "#",
	"dollar sign":       "$",
	"percent":           "%",
	"ampersand":         "&",
	"asterisk":          "*",
	"plus sign":         "+",
	"equals sign":       "=",
	"slash":             "/",
	"backslash":         `\`,

	// Whitespace
	"new line":      "\n",
	"newline":       "\n",
	"new paragraph": "\n\n",
	"tab":           "\t",
	"space":         " ",
}

// actionCommands are phrases that trigger editor actions instead of producing
// text. Order matters only for deterministic action output.
var actionCommands = []string{
	"delete that",
	"scratch that",
	"undo",
	"undo that",
	"redo",
	"redo that",
	"select all",
	"copy",
	"copy that",
	"cut",
	"cut that",
	"paste",
	"paste that",
	"capitalize",
	"uppercase",
	"lowercase",
}

// spaceRuns matches two or more consecutive space characters. Only plain
// spaces collapse so that inserted newlines and tabs survive cleanup.
var spaceRuns = regexp.MustCompile(` {2,}`)

// replacement is a compiled text command.
type replacement struct {
	pattern *regexp.Regexp
	text    string
}

// Processor applies command replacement and action extraction to recognized
// text. It is immutable after construction and safe for concurrent use.
type Processor struct {
	replacements []replacement
}

// NewProcessor compiles the command tables into a Processor.
func NewProcessor() *Processor {
	phrases := make([]string, 0, len(textCommands))
	for phrase := range textCommands {
		phrases = append(phrases, phrase)
	}
	// Longest phrase first so "open quote" wins over "quote".
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	p := &Processor{replacements: make([]replacement, 0, len(phrases))}
	for _, phrase := range phrases {
		p.replacements = append(p.replacements, replacement{
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
			text:    textCommands[phrase],
		})
	}
	return p
}

// Process scans text for commands. It returns the text with all text commands
// replaced and whitespace cleaned up, plus the list of detected actions with
// spaces replaced by underscores (e.g. "delete_that"). When the entire input
// is a single action phrase the returned text is empty.
func (p *Processor) Process(text string) (string, []string) {
	lower := strings.ToLower(text)

	var actions []string
	for _, cmd := range actionCommands {
		if strings.Contains(lower, cmd) {
			actions = append(actions, strings.ReplaceAll(cmd, " ", "_"))
		}
	}

	if len(actions) > 0 {
		trimmed := strings.TrimSpace(lower)
		for _, cmd := range actionCommands {
			if trimmed == cmd {
				return "", actions
			}
		}
	}

	result := text
	for _, r := range p.replacements {
		result = r.pattern.ReplaceAllString(result, r.text)
	}

	result = spaceRuns.ReplaceAllString(result, " ")
	result = strings.Trim(result, " ")

	return result, actions
}

// TextCommands returns the spoken phrases that map to literal text.
func (p *Processor) TextCommands() []string {
	phrases := make([]string, 0, len(textCommands))
	for phrase := range textCommands {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)
	return phrases
}

// ActionCommands returns the spoken phrases that trigger editor actions.
func (p *Processor) ActionCommands() []string {
	out := make([]string, len(actionCommands))
	copy(out, actionCommands)
	return out
}
