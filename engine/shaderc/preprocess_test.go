package shaderc

import "testing"

func TestPreprocess(t *testing.T) {
	t.Run("replaces whole identifiers only", func(t *testing.T) {
		source := "const a = MAX; const b = MAX_LIGHTS;"
		got := Preprocess(source, map[string]string{"MAX": "4"})
		want := "const a = 4; const b = MAX_LIGHTS;"
		if got != want {
			t.Errorf("Preprocess: got %q, want %q", got, want)
		}
	})

	t.Run("applies defines in sorted key order", func(t *testing.T) {
		// A rewrites to B first, then the B define rewrites both. The
		// chaining is the documented consequence of deterministic order.
		got := Preprocess("A B", map[string]string{"A": "B", "B": "C"})
		if got != "C C" {
			t.Errorf("Preprocess: got %q, want %q", got, "C C")
		}
	})

	t.Run("no defines returns source unchanged", func(t *testing.T) {
		source := "fn main() {}"
		if got := Preprocess(source, nil); got != source {
			t.Errorf("Preprocess: got %q, want input unchanged", got)
		}
	})

	t.Run("multiple occurrences", func(t *testing.T) {
		got := Preprocess("WIDTH * WIDTH", map[string]string{"WIDTH": "128"})
		if got != "128 * 128" {
			t.Errorf("Preprocess: got %q", got)
		}
	})
}
