package catalog

import (
	"testing"
)

func searchCatalog() *Catalog {
	return New(
		Product{Code: "SP10E", Name: "10cm Electric Sparkler", Rate: ParseRate("12.50")},
		Product{Code: "SP30C", Name: "30cm Colour Sparkler", Rate: ParseRate("40")},
		Product{Code: "FP01", Name: "Flower Pot (Big)", Rate: ParseRate("80")},
		Product{Code: "FP02", Name: "Flower Pot Special", Rate: ParseRate("120")},
	)
}

func codes(ms []Match) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Code
	}
	return out
}

func TestSearch(t *testing.T) {
	c := searchCatalog()
	tests := []struct {
		query string
		want  []string
	}{
		{"sparkler", []string{"SP10E", "SP30C"}},
		{"SP10E", []string{"SP10E"}},
		{"sp", []string{"SP10E", "SP30C", "FP02"}},
		{"flower pot big", []string{"FP01"}},
		{"flower spec", []string{"FP02"}},
		{"pot", []string{"FP01", "FP02"}},
		{"rocket", nil},
		{"  ", nil},
		{"colour-sparkler!", []string{"SP30C"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := codes(c.Search(tt.query, 0))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSearch_ExactCodeRanksFirst(t *testing.T) {
	c := New(
		Product{Code: "FP", Name: "Fancy Pot"},
		Product{Code: "FP01", Name: "Flower Pot"},
	)
	got := c.Search("fp", 0)
	if len(got) != 2 || got[0].Code != "FP" {
		t.Fatalf("got %v", codes(got))
	}
}

func TestSearch_PunctuatedCodes(t *testing.T) {
	c := New(
		Product{Code: "SP-10E", Name: "10cm Electric Sparkler"},
		Product{Code: "FC 2.5", Name: "Fancy Chakkar"},
		Product{Code: "FC10", Name: "Flower Chakkar"},
	)
	tests := []struct {
		query string
		want  []string
	}{
		{"SP-10E", []string{"SP-10E"}},
		{"sp-10e", []string{"SP-10E"}},
		{"sp 10e", []string{"SP-10E"}},
		{"FC 2.5", []string{"FC 2.5"}},
		{"fc 2", []string{"FC 2.5"}},
		{"fc", []string{"FC 2.5", "FC10"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := codes(c.Search(tt.query, 0))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
	if got := c.Search("FC 2.5", 0); got[0].Score != codeExactWeight {
		t.Errorf("exact code score: got %d", got[0].Score)
	}
}

func TestSearch_Limit(t *testing.T) {
	if got := searchCatalog().Search("sp", 1); len(got) != 1 {
		t.Errorf("limit: got %d results", len(got))
	}
	var nilCat *Catalog
	if got := nilCat.Search("sp", 0); got != nil {
		t.Errorf("nil catalog: got %v", got)
	}
}
