package answer

import "testing"

func TestMatch(t *testing.T) {
	testCases := []struct {
		name      string
		submitted string
		expected  string
		want      bool
	}{
		{name: "Identical", submitted: "Paris", expected: "Paris", want: true},
		{name: "Surrounding whitespace and case", submitted: " paris ", expected: "Paris", want: true},
		{name: "Tabs and newlines", submitted: "\tParis\n", expected: "paris", want: true},
		{name: "Punctuation differs", submitted: "paris!", expected: "Paris", want: false},
		{name: "Polish letters", submitted: "ŻÓŁW", expected: "żółw", want: true},
		{name: "Inner whitespace is kept", submitted: "new  york", expected: "new york", want: false},
		{name: "Empty against blank", submitted: "   ", expected: "", want: true},
		{name: "Different words", submitted: "London", expected: "Paris", want: false},
		{name: "Sharp s is not ss", submitted: "strasse", expected: "Straße", want: false},
		{name: "Sharp s case", submitted: "STRAßE", expected: "straße", want: true},
		{name: "Ligature is not expanded", submitted: "ﬁ", expected: "fi", want: false},
		{name: "Titlecase digraph", submitted: "ǅ", expected: "ǆ", want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Match(tc.submitted, tc.expected); got != tc.want {
				t.Errorf("Match(%q, %q) = %v, expected %v", tc.submitted, tc.expected, got, tc.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  Ćma \r\n"); got != "ćma" {
		t.Errorf("Expected normalized string to be 'ćma', but got '%s'", got)
	}
	if got := Normalize("Straße"); got != "straße" {
		t.Errorf("Expected normalized string to be 'straße', but got '%s'", got)
	}
}
