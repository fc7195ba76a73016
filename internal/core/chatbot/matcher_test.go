package chatbot

import "testing"

func TestMatchers(t *testing.T) {
	tests := []struct {
		keyword   string
		text      string
		substring bool
		word      bool
	}{
		{"season", "best season to harvest", true, true},
		{"season", "seasonal crops", true, false},
		{"hi", "which crop", true, false},
		{"hi", "hi, kisan", true, true},
		{"rice", "rice", true, true},
		{"rice", "price", true, false},
		{"rice", "price of rice", true, true},
		{"wheat", "gehun (wheat)", true, true},
		{"sell", "", false, false},
	}

	for _, tt := range tests {
		if got := (SubstringMatcher{}).Matches(tt.keyword, tt.text); got != tt.substring {
			t.Errorf("SubstringMatcher(%q, %q) = %v, want %v", tt.keyword, tt.text, got, tt.substring)
		}
		if got := (WordMatcher{}).Matches(tt.keyword, tt.text); got != tt.word {
			t.Errorf("WordMatcher(%q, %q) = %v, want %v", tt.keyword, tt.text, got, tt.word)
		}
	}
}

func TestMatcherByName(t *testing.T) {
	if _, ok := MatcherByName("word").(WordMatcher); !ok {
		t.Fatalf("expected WordMatcher for \"word\"")
	}
	if _, ok := MatcherByName("").(SubstringMatcher); !ok {
		t.Fatalf("expected SubstringMatcher by default")
	}
}
