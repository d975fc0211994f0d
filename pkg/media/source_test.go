package media

import "testing"

func TestDefaultConstraints_Accepts(t *testing.T) {
	// given
	constraints := DefaultConstraints()
	cases := map[string]bool{
		"/videos/a.mp4":  true,
		"/videos/b.MOV":  true,
		"/videos/c.webm": true,
		"/videos/d.mkv":  true,
		"/videos/e.avi":  false,
		"/videos/mp4":    false,
	}

	for path, expected := range cases {
		// when
		accepted := constraints.Accepts(path)

		// then
		if accepted != expected {
			t.Errorf("Expected %s acceptance to be %t", path, expected)
		}
	}
}

func TestConstraints_WithoutFiltersAcceptEverything(t *testing.T) {
	// given
	constraints := Constraints{}

	// when
	accepted := constraints.Accepts("/notes.txt")
	accept := constraints.Accept()

	// then
	if !accepted {
		t.Errorf("Expected path to be accepted")
	}

	if accept != defaultAccept {
		t.Errorf("Expected accept %s, got %s", defaultAccept, accept)
	}
}

func TestConstraints_AcceptUsesFirstFilter(t *testing.T) {
	// given
	constraints := Constraints{
		Filters: []Filter{
			{Name: "Clips", Extensions: []string{"mp4", ".mov"}},
			{Name: "Other", Extensions: []string{"mkv"}},
		},
	}

	// when
	accept := constraints.Accept()
	extensions := constraints.Extensions()

	// then
	if accept != ".mp4,.mov" {
		t.Errorf("Unexpected accept %s", accept)
	}

	if len(extensions) != 3 {
		t.Errorf("Expected 3 extensions, got %v", extensions)
	}
}
