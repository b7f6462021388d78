package pypage

import "testing"

func TestPruneTrimsLineIsolatedBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "block alone on its line is trimmed",
			input: "a\n  {% if x %}\nb\n  {% endif %}\nc",
			want:  "a\nb\nc",
		},
		{
			name:  "block sharing a line with text is untouched",
			input: "a {% if x %}b{% endif %} c",
			want:  "a b c",
		},
		{
			name:  "block at document start",
			input: "{% if x %}\nbody\n{% endif %}",
			want:  "body\n",
		},
		{
			name:  "block at document end",
			input: "head\n{% if x %}\nbody{% endif %}",
			want:  "head\nbody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := lex(tt.input, DefaultDelims())
			if err != nil {
				t.Fatalf("lex failed: %v", err)
			}
			pruned := prune(toks)
			var got string
			for _, tok := range pruned {
				if tok.Typ == TokenTextKind {
					got += tok.Val
				}
			}
			if got != tt.want {
				t.Errorf("pruned text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPruneDropsEmptiedTextTokens(t *testing.T) {
	toks, err := lex("{% if a %}\n{% endif %}", DefaultDelims())
	if err != nil {
		t.Fatalf("lex failed: %v", err)
	}
	pruned := prune(toks)
	for _, tok := range pruned {
		if tok.Typ == TokenTextKind {
			t.Errorf("expected no surviving Text tokens, got %+v", pruned)
		}
	}
}
