package palette

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRofiFormatItem_UsesSingleNullSeparator(t *testing.T) {
	b := newRofiBackend()

	out := b.formatItem(Item{
		Label:    "Header",
		IsHeader: true,
		Icon:     "folder",
		Meta:     "meta",
	})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.Contains(out, "\x00nonselectable\x1ftrue") {
		t.Fatalf("expected nonselectable property, got %q", out)
	}
	if !strings.Contains(out, "icon\x1ffolder") || !strings.Contains(out, "meta\x1fmeta") {
		t.Fatalf("expected icon/meta attributes, got %q", out)
	}
	if !strings.Contains(out, "<b>Header</b>") {
		t.Fatalf("expected bold markup for header, got %q", out)
	}
}

func TestRofiFormatItem_EscapesMarkup(t *testing.T) {
	b := newRofiBackend()
	out := b.formatItem(Item{Label: "a <b> & c"})
	if !strings.HasPrefix(out, "a &lt;b&gt; &amp; c") {
		t.Fatalf("expected escaped label, got %q", out)
	}
}

func TestDmenuFormatItem_PlainText(t *testing.T) {
	b := newDmenuBackend()
	out := b.formatItem(Item{Label: "Open\nsettings", Icon: "x", IsHeader: true})
	if out != "Open settings" {
		t.Fatalf("expected plain sanitized label, got %q", out)
	}
}

func TestRofiBuildArgs_UsesIndexFormatAndNoCustom(t *testing.T) {
	b := newRofiBackend()

	_, states := b.formatInput([]Item{
		{Label: "h", IsHeader: true},
		{Label: "a"},
		{Label: "b", IsActive: true},
	})
	args := b.buildArgs("prompt", "message", states)

	if !containsArgs(args, "-format", "i") {
		t.Fatalf("expected -format i in args, got %v", args)
	}
	if !containsArg(args, "-no-custom") {
		t.Fatalf("expected -no-custom in args, got %v", args)
	}
	if !containsArgs(args, "-a", "2") {
		t.Fatalf("expected -a 2 in args, got %v", args)
	}
	if !containsArgs(args, "-selected-row", "2") {
		t.Fatalf("expected -selected-row 2 in args, got %v", args)
	}
	if !containsArgs(args, "-mesg", "message") {
		t.Fatalf("expected -mesg in args, got %v", args)
	}
}

func TestBuildArgs_OtherBackends(t *testing.T) {
	if args := newFuzzelBackend().buildArgs("p", "", rowStates{}); !containsArg(args, "--index") {
		t.Fatalf("fuzzel: expected --index, got %v", args)
	}
	if args := newWofiBackend().buildArgs("p", "", rowStates{}); !containsArgs(args, "--prompt", "p") {
		t.Fatalf("wofi: expected --prompt p, got %v", args)
	}
	if args := newDmenuBackend().buildArgs("p", "m", rowStates{}); !containsArgs(args, "-p", "p") || containsArg(args, "-mesg") {
		t.Fatalf("dmenu: unexpected args %v", args)
	}
}

func TestParseSelection_Index(t *testing.T) {
	b := newRofiBackend()
	items := []Item{
		{Label: "a", Action: "a"},
		{Label: "b", Action: "b"},
	}
	got, err := b.parseSelection("1", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Action != "b" {
		t.Fatalf("expected action b, got %q", got.Action)
	}
	if _, err := b.parseSelection("7", items); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestFormatInput_DisambiguatesDuplicateLabels(t *testing.T) {
	b := newDmenuBackend()
	items := []Item{
		{Label: "Dup", Action: "a"},
		{Label: "Dup", Action: "b"},
	}

	_, _ = b.formatInput(items)
	if items[0].Label != "Dup" {
		t.Fatalf("expected first label unchanged, got %q", items[0].Label)
	}
	if items[1].Label != "Dup (2)" {
		t.Fatalf("expected second label disambiguated, got %q", items[1].Label)
	}
}

func TestFormatInput_IndexBackendsDoNotDisambiguateDuplicateLabels(t *testing.T) {
	b := newRofiBackend()
	items := []Item{
		{Label: "Dup", Action: "a"},
		{Label: "Dup", Action: "b"},
	}

	_, _ = b.formatInput(items)
	if items[0].Label != "Dup" || items[1].Label != "Dup" {
		t.Fatalf("expected labels unchanged for index backend, got %#v", items)
	}
}

func TestShow_TextSelection(t *testing.T) {
	b := newDmenuBackend()
	var gotInput string
	b.run = func(ctx context.Context, name string, args []string, input string) (string, error) {
		if name != "dmenu" {
			t.Fatalf("unexpected command %q", name)
		}
		gotInput = input
		return "Quit\n", nil
	}

	item, err := b.Show(context.Background(), "steward", []Item{
		{Label: "Open", Action: "open"},
		{Label: "Quit", Action: "quit"},
	}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Action != "quit" {
		t.Fatalf("expected quit, got %q", item.Action)
	}
	if gotInput != "Open\nQuit" {
		t.Fatalf("unexpected input %q", gotInput)
	}
}

func TestShow_EmptySelectionIsCancel(t *testing.T) {
	b := newRofiBackend()
	b.run = func(ctx context.Context, name string, args []string, input string) (string, error) {
		return "", nil
	}
	if _, err := b.Show(context.Background(), "", []Item{{Label: "a"}}, ""); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestShow_HeaderSelectionIsCancel(t *testing.T) {
	b := newRofiBackend()
	b.run = func(ctx context.Context, name string, args []string, input string) (string, error) {
		return "0", nil
	}
	if _, err := b.Show(context.Background(), "", []Item{{Label: "h", IsHeader: true}, {Label: "a"}}, ""); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestShow_RunError(t *testing.T) {
	b := newRofiBackend()
	b.run = func(ctx context.Context, name string, args []string, input string) (string, error) {
		return "", errors.New("rofi failed: boom")
	}
	_, err := b.Show(context.Background(), "", []Item{{Label: "a"}}, "")
	if err == nil || errors.Is(err, ErrCancelled) {
		t.Fatalf("expected run error, got %v", err)
	}
}

func TestShow_NoItems(t *testing.T) {
	if _, err := newRofiBackend().Show(context.Background(), "", nil, ""); err == nil {
		t.Fatal("expected error for empty item list")
	}
}

func TestNewBackend(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	available := map[string]bool{"wofi": true, "dmenu": true}
	lookPath = func(name string) (string, error) {
		if available[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}

	name, err := DetectBackend()
	if err != nil || name != "wofi" {
		t.Fatalf("DetectBackend() = %q, %v; want wofi", name, err)
	}

	b, err := NewBackend("auto")
	if err != nil {
		t.Fatalf("NewBackend(auto): %v", err)
	}
	if b.(*dmenuLikeBackend).command != "wofi" {
		t.Fatalf("expected wofi backend, got %q", b.(*dmenuLikeBackend).command)
	}

	if _, err := NewBackend("rofi"); err == nil {
		t.Fatal("expected missing rofi to fail")
	}
	if _, err := NewBackend("bogus"); err == nil {
		t.Fatal("expected unknown backend to fail")
	}

	available = map[string]bool{}
	if _, err := DetectBackend(); err == nil {
		t.Fatal("expected detection to fail with nothing installed")
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func containsArgs(args []string, a string, b string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == a && args[i+1] == b {
			return true
		}
	}
	return false
}
