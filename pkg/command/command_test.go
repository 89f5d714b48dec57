package command

import (
	"reflect"
	"testing"
)

func TestProcessPunctuation(t *testing.T) {
	p := NewProcessor()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"period and question mark", "Hello period How are you question mark", "Hello . How are you ?"},
		{"comma", "first comma second", "first , second"},
		{"case insensitive", "end PERIOD", "end ."},
		{"multi word beats single word", "open quote hi close quote", `" hi "`},
		{"no commands", "just plain dictation", "just plain dictation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, actions := p.Process(tt.in)
			if got != tt.want {
				t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len(actions) != 0 {
				t.Errorf("Process(%q) actions = %v, want none", tt.in, actions)
			}
		})
	}
}

func TestProcessNewLinePreserved(t *testing.T) {
	p := NewProcessor()

	got, _ := p.Process("First line new line Second line")
	if got != "First line \n Second line" {
		t.Errorf("Process() = %q, want newline preserved", got)
	}

	got, _ = p.Process("new line")
	if got != "\n" {
		t.Errorf("Process(%q) = %q, want %q", "new line", got, "\n")
	}

	got, _ = p.Process("indent tab here")
	if got != "indent \t here" {
		t.Errorf("Process() = %q, want tab preserved", got)
	}
}

func TestProcessActions(t *testing.T) {
	p := NewProcessor()

	tests := []struct {
		name        string
		in          string
		wantText    string
		wantActions []string
	}{
		{"exact action empties text", "delete that", "", []string{"delete_that"}},
		{"exact action case insensitive", "Select All", "", []string{"select_all"}},
		{"exact action with padding", "  scratch that  ", "", []string{"scratch_that"}},
		{"embedded action keeps text", "scratch that previous text", "scratch that previous text", []string{"scratch_that"}},
		{"overlapping actions", "undo that", "", []string{"undo", "undo_that"}},
		{"copy variants", "copy that please", "copy that please", []string{"copy", "copy_that"}},
		{"formatting action", "uppercase", "", []string{"uppercase"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotText, gotActions := p.Process(tt.in)
			if gotText != tt.wantText {
				t.Errorf("Process(%q) text = %q, want %q", tt.in, gotText, tt.wantText)
			}
			if !reflect.DeepEqual(gotActions, tt.wantActions) {
				t.Errorf("Process(%q) actions = %v, want %v", tt.in, gotActions, tt.wantActions)
			}
		})
	}
}

func TestProcessRespectsWordBoundaries(t *testing.T) {
	p := NewProcessor()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"phrase embedded in a word", "newlinetest stays", "newlinetest stays"},
		{"phrase as a word prefix", "periodic table", "periodic table"},
		{"phrase as a word suffix", "stab wound", "stab wound"},
		{"same word standalone still fires", "tab stop", "\t stop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, actions := p.Process(tt.in)
			if got != tt.want {
				t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len(actions) != 0 {
				t.Errorf("Process(%q) actions = %v, want none", tt.in, actions)
			}
		})
	}
}

func TestProcessWhitespaceCleanup(t *testing.T) {
	p := NewProcessor()

	got, _ := p.Process("too    many    spaces")
	if got != "too many spaces" {
		t.Errorf("Process() = %q, want collapsed spaces", got)
	}

	got, _ = p.Process("  padded input  ")
	if got != "padded input" {
		t.Errorf("Process() = %q, want trimmed", got)
	}
}

func TestProcessEmpty(t *testing.T) {
	p := NewProcessor()
	got, actions := p.Process("")
	if got != "" || len(actions) != 0 {
		t.Errorf("Process(\"\") = (%q, %v), want empty", got, actions)
	}
}

func TestCommandLists(t *testing.T) {
	p := NewProcessor()
	if len(p.TextCommands()) == 0 {
		t.Error("TextCommands() is empty")
	}
	if len(p.ActionCommands()) == 0 {
		t.Error("ActionCommands() is empty")
	}
}
