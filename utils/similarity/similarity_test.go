package similarity

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Matrix", "the matrix"},
		{"  Amélie  ", "amelie"},
		{"Me & You", "me and you"},
		{"Spider-Man: No Way Home", "spider man no way home"},
		{"WALL·E", "wall e"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSimilarityIdentical(t *testing.T) {
	if got := Similarity("Heat", "heat"); got != 1.0 {
		t.Fatalf("expected 1.0 for case-insensitive match, got %f", got)
	}
	if got := Similarity("Amélie", "Amelie"); got != 1.0 {
		t.Fatalf("expected 1.0 for transliterated match, got %f", got)
	}
}

func TestSimilaritySuffixContainment(t *testing.T) {
	got := Similarity("Will Vinton's Claymation Christmas", "Claymation Christmas")
	if got < 0.90 {
		t.Fatalf("expected suffix containment to score >= 0.90, got %f", got)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	if got := Similarity("Alien", "Titanic"); got > 0.5 {
		t.Fatalf("expected low similarity for unrelated titles, got %f", got)
	}
}
