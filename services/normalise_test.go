package services

import "testing"

func TestNormaliseCity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Brussels ", "brussels"},
		{"  brussels", "brussels"},
		{"BRUSSELS", "brussels"},
		{"\tSint-Niklaas\n", "sint-niklaas"},
		{"Liège", "liège"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormaliseCity(tt.in); got != tt.want {
			t.Errorf("NormaliseCity(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormaliseCityEqualityAcrossSources(t *testing.T) {
	if NormaliseCity("Brussels ") != NormaliseCommune("brussels") {
		t.Error("listing city and commune name should normalise to the same key")
	}
}

func TestNormaliseCityComposesAccents(t *testing.T) {
	// "Liège" written with a combining grave accent
	decomposed := "Lie\u0300ge"
	if NormaliseCity(decomposed) != NormaliseCity("Liège") {
		t.Error("decomposed and precomposed spellings should match")
	}
	if NormaliseCity("Liege") == NormaliseCity("Liège") {
		t.Error("accents are not folded")
	}
}

func TestNormaliseProvinceKeepsCase(t *testing.T) {
	if got := NormaliseProvince("  West Flanders "); got != "West Flanders" {
		t.Errorf("NormaliseProvince: got %q", got)
	}
}
