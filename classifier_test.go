package pypage

import (
	"reflect"
	"testing"
)

func classifyStr(s string) (BlockTag, error) {
	return classify(Token{Typ: TokenBlockKind, Val: s, Loc: Loc{Line: 1, Column: 1}})
}

func TestClassifySimpleTags(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKnd BlockTagKind
		wantErr bool
	}{
		{"if", " if x > 0 ", KindIf, false},
		{"if missing expr", " if ", KindIf, true},
		{"elif", " elif y ", KindElif, false},
		{"else", " else ", KindElse, false},
		{"else with expr rejected", " else y ", KindElse, true},
		{"bare end", " end ", KindEnd, false},
		{"endif", " endif ", KindEnd, false},
		{"capture", " capture out ", KindCapture, false},
		{"capture bad name", " capture 1bad ", KindCapture, true},
		{"comment", " comment ", KindComment, false},
		{"comment with args rejected", " comment oops ", KindComment, true},
		{"unknown tag", " frobnicate ", KindIf, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bt, err := classifyStr(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("classify(%q) should have failed", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("classify(%q) failed: %v", tt.input, err)
			}
			if bt.Kind != tt.wantKnd {
				t.Errorf("classify(%q) kind = %s, want %s", tt.input, bt.Kind, tt.wantKnd)
			}
		})
	}
}

func TestClassifyEndTargets(t *testing.T) {
	bt, err := classifyStr(" endfor ")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if bt.EndTarget != "for" {
		t.Errorf("EndTarget = %q, want %q", bt.EndTarget, "for")
	}

	bt, err = classifyStr(" end ")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if bt.EndTarget != "" {
		t.Errorf("EndTarget = %q, want empty", bt.EndTarget)
	}
}

func TestClassifyForTargetsAndGenexpr(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTargets []string
	}{
		{"single target", " for x in range(10) ", []string{"x"}},
		{"tuple target", " for a, b in pairs ", []string{"a", "b"}},
		{"nested for", " for x in xs for y in ys(x) ", []string{"x", "y"}},
		{"dedup and sort", " for b in bs for a, b in pairs ", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bt, err := classifyStr(tt.input)
			if err != nil {
				t.Fatalf("classify(%q) failed: %v", tt.input, err)
			}
			if bt.Kind != KindFor {
				t.Fatalf("classify(%q) kind = %s, want for", tt.input, bt.Kind)
			}
			if !reflect.DeepEqual(bt.ForTargets, tt.wantTargets) {
				t.Errorf("targets = %v, want %v", bt.ForTargets, tt.wantTargets)
			}
		})
	}
}

func TestClassifyForGenexprSingleTargetHasTrailingComma(t *testing.T) {
	bt, err := classifyStr(" for x in xs ")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	want := "[(x,) for x in xs]"
	if bt.ForGenexpr != want {
		t.Errorf("genexpr = %q, want %q", bt.ForGenexpr, want)
	}
}

func TestClassifyForGenexprMultiTargetNoTrailingComma(t *testing.T) {
	bt, err := classifyStr(" for a, b in pairs ")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	want := "[(a, b) for a, b in pairs]"
	if bt.ForGenexpr != want {
		t.Errorf("genexpr = %q, want %q", bt.ForGenexpr, want)
	}
}

func TestClassifyWhileModifiers(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantExpr    string
		wantDofirst bool
		wantSlow    bool
	}{
		{"plain", " while cond ", "cond", false, false},
		{"dofirst", " while dofirst cond ", "cond", true, false},
		{"slow", " while cond slow ", "cond", false, true},
		{"dofirst and slow", " while dofirst cond slow ", "cond", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bt, err := classifyStr(tt.input)
			if err != nil {
				t.Fatalf("classify(%q) failed: %v", tt.input, err)
			}
			if bt.Expr != tt.wantExpr {
				t.Errorf("expr = %q, want %q", bt.Expr, tt.wantExpr)
			}
			if bt.WhileDofirst != tt.wantDofirst {
				t.Errorf("dofirst = %v, want %v", bt.WhileDofirst, tt.wantDofirst)
			}
			if bt.WhileSlow != tt.wantSlow {
				t.Errorf("slow = %v, want %v", bt.WhileSlow, tt.wantSlow)
			}
		})
	}
}

func TestClassifyDefParams(t *testing.T) {
	bt, err := classifyStr(" def greet name greeting ")
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if bt.DefName != "greet" {
		t.Errorf("DefName = %q, want greet", bt.DefName)
	}
	if !reflect.DeepEqual(bt.DefParams, []string{"name", "greeting"}) {
		t.Errorf("DefParams = %v", bt.DefParams)
	}

	if _, err := classifyStr(" def greet name name "); err == nil {
		t.Error("duplicate parameter should have failed")
	}
}
