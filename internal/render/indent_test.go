package render

import "testing"

func TestDetectIndent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 2},
		{"no indentation", "a\nb\nc", 2},
		{"single indented line", "    a", 2},
		{"no change between lines", "  a\n  b", 2},
		{"four spaces", "def f():\n    if x:\n        y()\n    return", 4},
		{"two spaces", "  a\n    b\n  c", 2},
		{"unindented lines are skipped", "    a\nb\n        c\nd\n    e", 4},
		{"tie goes to the smaller unit", "  a\n     b\n       c", 2},
		{"tabs are not indentation", "\ta\n\t\tb", 2},
		{"majority wins over outlier", "  a\n    b\n  c\n     d", 2},
		{"eight over two", "x\n        a\n                b\n        c\n          d", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectIndent(tt.text); got != tt.want {
				t.Errorf("DetectIndent(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectIndentAlwaysPositive(t *testing.T) {
	inputs := []string{
		" a\n a\n a",
		"   a\n b\n      c\n  d",
		"a\n\n\n",
		"\n\n  \n    \n",
	}
	for _, in := range inputs {
		if got := DetectIndent(in); got <= 0 {
			t.Errorf("DetectIndent(%q) = %d, expected a positive unit", in, got)
		}
	}
}
