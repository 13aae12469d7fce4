package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func testRenderer() *Renderer {
	return NewRenderer(DefaultOptions().WithStyle(ThemeNoTTY))
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<a href="x">&'`)
	want := `&lt;a href="x"&gt;&amp;'`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExpandImages(t *testing.T) {
	tests := []struct {
		in        string
		wantPath  string
		wantInOut string
	}{
		{"look [IMAGE] /srv/app/static/uploads/cat.png", "uploads/cat.png", "🖼 uploads/cat.png"},
		{"[IMAGE]pic.png", "pic.png", "🖼 pic.png"},
		{"[IMAGE]/x/uploads/my_cat.png", "uploads/my_cat.png", `🖼 uploads/my\_cat.png`},
	}

	for _, tt := range tests {
		out, images := ExpandImages(tt.in)
		if len(images) != 1 || images[0] != tt.wantPath {
			t.Errorf("ExpandImages(%q) images = %v, want [%s]", tt.in, images, tt.wantPath)
		}
		if !strings.Contains(out, tt.wantInOut) {
			t.Errorf("ExpandImages(%q) = %q, expected it to contain %q", tt.in, out, tt.wantInOut)
		}
		if strings.Contains(out, "[IMAGE]") {
			t.Errorf("token left in output: %q", out)
		}
	}
}

func TestSplitFences(t *testing.T) {
	segs := splitFences("intro\n```go\nx := 1\n```\nmid\n~~~\nraw\n~~~\n    ```\nnot a fence")

	if len(segs) != 5 {
		t.Fatalf("expected 5 segments, got %d: %+v", len(segs), segs)
	}
	if segs[1].lang != "go" || segs[1].text != "x := 1" || !segs[1].code {
		t.Errorf("unexpected go segment %+v", segs[1])
	}
	if !segs[3].code || segs[3].text != "raw" {
		t.Errorf("unexpected tilde segment %+v", segs[3])
	}
	if segs[4].code || !strings.Contains(segs[4].text, "    ```") {
		t.Errorf("indented fence should stay prose, got %+v", segs[4])
	}
}

func TestSplitFencesUnclosed(t *testing.T) {
	segs := splitFences("text\n```py\nprint(1)")
	last := segs[len(segs)-1]
	if !last.code || last.lang != "py" || last.text != "print(1)" {
		t.Errorf("expected unclosed fence to run to the end, got %+v", last)
	}
}

func TestRenderAssistant(t *testing.T) {
	content := "Here:\n```go\nfunc x() {\n\tif y {\n\t}\n}\n```\ndone"
	node, err := testRenderer().Render("assistant", content, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if node.Sender != "m1" {
		t.Errorf("expected sender m1, got %q", node.Sender)
	}
	blocks := node.CodeBlocks()
	if len(blocks) != 1 {
		t.Fatalf("expected 1 code block, got %d", len(blocks))
	}
	if blocks[0].Language != "go" {
		t.Errorf("expected language go, got %q", blocks[0].Language)
	}
	if blocks[0].Code != "func x() {\n\tif y {\n\t}\n}" {
		t.Errorf("copy text should be the plain code, got %q", blocks[0].Code)
	}

	view := ansi.Strip(node.View(nil))
	if !strings.HasPrefix(view, "m1") {
		t.Errorf("expected sender label first, got %q", view)
	}
	if !strings.Contains(view, "done") {
		t.Errorf("expected trailing prose, got %q", view)
	}
}

func TestRenderAIRoleIsAssistant(t *testing.T) {
	node, err := testRenderer().Render("ai", "hi", "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Role != "assistant" || node.Sender != "m1" {
		t.Errorf("expected stored ai role to render as assistant, got %+v", node)
	}
}

func TestRenderUser(t *testing.T) {
	node, err := testRenderer().Render("user", "compare:\n```\na < b && c\n```", "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if node.Sender != "" {
		t.Errorf("user messages carry no sender, got %q", node.Sender)
	}
	blocks := node.CodeBlocks()
	if len(blocks) != 1 || blocks[0].Code != "a < b && c" {
		t.Errorf("expected literal code in user block, got %+v", blocks)
	}
}

func TestRenderImages(t *testing.T) {
	node, err := testRenderer().Render("user", "what is this?\n[IMAGE]/app/static/uploads/x.png", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(node.Images) != 1 || node.Images[0] != "uploads/x.png" {
		t.Errorf("expected uploads/x.png, got %v", node.Images)
	}

	view := ansi.Strip(node.View(nil))
	if !strings.Contains(view, ImageMarker+" uploads/x.png") {
		t.Errorf("expected the shortened path on an image line, got %q", view)
	}
	if strings.Contains(view, "/uploads/x.png") || strings.Contains(view, "Image:") {
		t.Errorf("image reference was rewritten, got %q", view)
	}
}

func TestRenderImagePathNotEmphasized(t *testing.T) {
	node, err := testRenderer().Render("assistant", "[IMAGE]/app/uploads/a_b_c.png", "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view := ansi.Strip(node.View(nil)); !strings.Contains(view, "uploads/a_b_c.png") {
		t.Errorf("expected the literal path, got %q", view)
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	content := "Hello\n\n```python\ndef f():\n    return 1\n```"
	r := testRenderer()

	a, err := r.Render("assistant", content, "m1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Render("assistant", content, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if a.View(nil) != b.View(nil) {
		t.Error("expected identical output for identical content")
	}
}

func TestNodeViewBadge(t *testing.T) {
	node, err := testRenderer().Render("assistant", "```\none\n```\n```\ntwo\n```", "m1")
	if err != nil {
		t.Fatal(err)
	}

	view := ansi.Strip(node.View(func(i int) string {
		if i == 1 {
			return CopiedLabel
		}
		return ""
	}))
	if strings.Count(view, CopiedLabel) != 1 {
		t.Errorf("expected exactly one badge, got %q", view)
	}
	if strings.Index(view, CopiedLabel) < strings.Index(view, "one") {
		t.Errorf("badge should sit on the second block, got %q", view)
	}
}

func TestRenderError(t *testing.T) {
	node := testRenderer().RenderError(errors.New("HTTP error! status: 500"), "m1")
	if !node.Err {
		t.Error("expected error marker")
	}
	view := ansi.Strip(node.View(nil))
	if !strings.Contains(view, "HTTP error! status: 500") {
		t.Errorf("expected failure text, got %q", view)
	}
}

func TestRendererWithWidth(t *testing.T) {
	r := testRenderer()
	narrow := r.WithWidth(40)
	if narrow.Options().Width != 40 || r.Options().Width != 80 {
		t.Error("WithWidth should return an adjusted copy")
	}
}
