package wildcard

import "testing"

func TestCompilePatternShapes(t *testing.T) {
	cases := []struct {
		pattern string
		s       string
		match   bool
	}{
		{"*", "anything", true},
		{"*", "", true},
		{"hello", "hello", true},
		{"hello", "hellox", false},
		{"foo*", "foobar", true},
		{"foo*", "barfoo", false},
		{"*bar", "foobar", true},
		{"*bar", "barfoo", false},
		{"*mid*", "xxmidyy", true},
		{"*mid*", "xxxxyy", false},
	}
	for _, c := range cases {
		p, err := CompilePattern(c.pattern)
		if err != nil {
			t.Fatalf("CompilePattern(%q) failed: %v", c.pattern, err)
		}
		if got := p.IsMatch(c.s); got != c.match {
			t.Errorf("pattern %q vs %q: got %v, want %v", c.pattern, c.s, got, c.match)
		}
	}
}

func TestCompilePatternRejectsUnsupportedSyntax(t *testing.T) {
	for _, pattern := range []string{"h?llo", "h[ae]llo", "h^llo", `h\*llo`, "*foo*bar*"} {
		if _, err := CompilePattern(pattern); err != ErrNotImplemented {
			t.Errorf("CompilePattern(%q) = %v, want ErrNotImplemented", pattern, err)
		}
	}
}

func TestCompilePatternIsByteExact(t *testing.T) {
	p, err := CompilePattern("Foo")
	if err != nil {
		t.Fatal(err)
	}
	if p.IsMatch("foo") {
		t.Error("pattern matching should not case-fold")
	}
}
