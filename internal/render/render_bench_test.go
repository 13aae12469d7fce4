package render

import (
	"strings"
	"testing"
)

var benchmarkReply = "Here is the fix:\n\n" +
	"```go\n" +
	"func handle(w http.ResponseWriter, r *http.Request) {\n" +
	"    if r.Method != http.MethodPost {\n" +
	"        http.Error(w, \"method\", 405)\n" +
	"        return\n" +
	"    }\n" +
	"\n" +
	"    w.WriteHeader(204)\n" +
	"}\n" +
	"```\n\n" +
	"It rejects anything but **POST**. Then:\n\n" +
	"- run the tests\n" +
	"- deploy :rocket:\n"

func BenchmarkRenderReply(b *testing.B) {
	r := NewRenderer(DefaultOptions())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Render("assistant", benchmarkReply, "llama3"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkRenderStreamed re-renders every prefix of the reply, which is
// what the stream consumer does per chunk.
func BenchmarkRenderStreamed(b *testing.B) {
	r := NewRenderer(DefaultOptions())
	words := strings.SplitAfter(benchmarkReply, " ")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var acc strings.Builder
		for _, w := range words {
			acc.WriteString(w)
			if _, err := r.Render("assistant", acc.String(), "llama3"); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkFormatCode(b *testing.B) {
	code := "func main() {\n    if ok {\n        run()\n\n        stop()\n    }\n}\n"
	for i := 0; i < b.N; i++ {
		if _, err := FormatCode(code, PlainHighlight, DefaultCodeOptions()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProseUncached(b *testing.B) {
	opts := DefaultOptions()
	for i := 0; i < b.N; i++ {
		ResetProseCache()
		if _, err := Prose(benchmarkReply, opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProseParallel(b *testing.B) {
	opts := DefaultOptions()
	if _, err := Prose(benchmarkReply, opts); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := Prose(benchmarkReply, opts); err != nil {
				b.Fatal(err)
			}
		}
	})
}
