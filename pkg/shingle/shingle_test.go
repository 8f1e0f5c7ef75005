package shingle

import "testing"

func TestShingles_NeverEmptyForNonEmptyInput(t *testing.T) {
	cases := []string{
		"the quick brown fox jumps over the lazy dog",
		"hi",
		"a",
		"---\nname: backend-architect\n---",
		"!!!...???",
		"x",
	}
	tok := New(3)
	for _, c := range cases {
		set := tok.Shingles(c)
		if len(set) == 0 {
			t.Errorf("Shingles(%q) returned empty set", c)
		}
	}
}

func TestShingles_EmptyInputIsEmpty(t *testing.T) {
	tok := New(3)
	if set := tok.Shingles(""); len(set) != 0 {
		t.Errorf("expected empty set for empty input, got %d shingles", len(set))
	}
}

func TestShingles_HyphensPreserved(t *testing.T) {
	tok := New(3)
	a := tok.Shingles("name: backend-architect description")
	b := tok.Shingles("name: backendarchitect description")
	if equalSets(a, b) {
		t.Fatal("hyphen stripping collapsed two distinct documents to the same shingle set")
	}
}

func TestShingles_PunctuationDropped(t *testing.T) {
	tok := New(3)
	a := tok.Shingles("the quick brown fox jumps")
	b := tok.Shingles("The Quick, Brown: Fox (jumps)!")
	if !equalSets(a, b) {
		t.Fatal("punctuation and case variation should normalize to the same shingle set")
	}
}

func TestShingles_Fallback_FewWords(t *testing.T) {
	tok := New(3)
	set := tok.Shingles("hello world")
	if len(set) != 2 {
		t.Fatalf("expected word-level fallback (2 words), got %d entries", len(set))
	}
}

func TestShingles_Fallback_SingleWord(t *testing.T) {
	tok := New(3)
	set := tok.Shingles("ab")
	if len(set) != 1 {
		t.Fatalf("expected single-word fallback, got %d entries", len(set))
	}
}

func TestShingles_Fallback_PunctuationOnly(t *testing.T) {
	tok := New(3)
	set := tok.Shingles("...")
	if len(set) != 1 {
		t.Fatalf("expected singleton fallback for all-punctuation input, got %d entries", len(set))
	}
}

func equalSets(a, b Set) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
