package loader

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/colorgrid/pkg/testutil"
)

func benchInput(b *testing.B, n int) []byte {
	b.Helper()
	rows := testutil.New(testutil.DefaultConfig()).Quotes(n)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range rows {
		if err := enc.Encode(testutil.Record(&rows[i])); err != nil {
			b.Fatal(err)
		}
	}
	return buf.Bytes()
}

func BenchmarkParseColors(b *testing.B) {
	for _, size := range []struct {
		name string
		n    int
	}{
		{"100", 100},
		{"1000", 1000},
		{"10000", 10000},
	} {
		b.Run(size.name, func(b *testing.B) {
			input := benchInput(b, size.n)
			opts := ParseOptions{WarningHandler: func(string) {}}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				rows, err := ParseColors(bytes.NewReader(input), opts)
				if err != nil {
					b.Fatal(err)
				}
				if len(rows) != size.n {
					b.Fatalf("parsed %d rows", len(rows))
				}
			}
		})
	}
}
