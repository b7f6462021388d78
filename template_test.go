package pypage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromStringAndExecute(t *testing.T) {
	tpl, err := FromString("Hello {{ name }}!")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	got, err := tpl.Execute(map[string]any{"name": "World"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "Hello World!" {
		t.Errorf("Execute = %q, want %q", got, "Hello World!")
	}
}

func TestExecuteIsIndependentAcrossCalls(t *testing.T) {
	tpl, err := FromString("{{ x = x + 1 }}{{ x }}")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := tpl.Execute(map[string]any{"x": 1})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if got != "2" {
			t.Errorf("Execute call %d = %q, want %q (seed should not leak between calls)", i, got, "2")
		}
	}
}

func TestExecuteStateExposesFinalBindings(t *testing.T) {
	tpl, err := FromString("{% while x < 3 %}{{ x = x + 1 }}{% endwhile %}{% capture greeting %}hi{% endcapture %}")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	out, state, err := tpl.ExecuteState(map[string]any{"x": 0})
	if err != nil {
		t.Fatalf("ExecuteState failed: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
	if state["x"] != int64(3) {
		t.Errorf("state[x] = %v, want 3", state["x"])
	}
	if state["greeting"] != "hi" {
		t.Errorf("state[greeting] = %v, want %q", state["greeting"], "hi")
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.txt")
	if err := os.WriteFile(path, []byte("Hi {{ name }}"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tpl, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	got, err := tpl.Execute(map[string]any{"name": "there"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "Hi there" {
		t.Errorf("Execute = %q, want %q", got, "Hi there")
	}
}

func TestWithDelims(t *testing.T) {
	custom := Delims{
		CodeOpen: "<<", CodeClose: ">>",
		CommentOpen: "<#", CommentClose: "#>",
		BlockOpen: "<%", BlockClose: "%>",
	}
	tpl, err := FromString("<% if x %>yes<% endif %>", WithDelims(custom))
	if err != nil {
		t.Fatalf("FromString with custom delims failed: %v", err)
	}
	got, err := tpl.Execute(map[string]any{"x": true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "yes" {
		t.Errorf("Execute = %q, want %q", got, "yes")
	}
}

func TestWithInjectAndInclude(t *testing.T) {
	files := map[string]string{
		"raw.txt":  "RAW",
		"tmpl.txt": "nested {{ 1 + 1 }}",
	}
	read := func(name string) (string, error) { return files[name], nil }

	tpl, err := FromString("{{ inject(\"raw.txt\") }}/{{ include(\"tmpl.txt\") }}")
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}

	got, err := tpl.Execute(nil,
		WithInject(read),
		WithInclude(func(name string) (string, error) {
			return Process(files[name], nil)
		}),
	)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "RAW/nested 2" {
		t.Errorf("Execute = %q, want %q", got, "RAW/nested 2")
	}
}

func TestMust(t *testing.T) {
	t.Run("successful Must", func(t *testing.T) {
		tpl := Must(FromString("ok"))
		if tpl == nil {
			t.Error("Must should return a template on success")
		}
	})

	t.Run("Must with error panics", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Must should panic on error")
			}
		}()
		Must(FromString("{% endif %}"))
	})
}
