package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault(" 8081 ", 8080); got != 8081 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("x", 8080); got != 8080 {
		t.Fatalf("got %d", got)
	}
}

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("0.25", 0.2); got != 0.25 {
		t.Fatalf("got %v", got)
	}
	if got := ParseFloatDefault("", 0.2); got != 0.2 {
		t.Fatalf("got %v", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" k1:9092, ,k2:9092,")
	if len(got) != 2 || got[0] != "k1:9092" || got[1] != "k2:9092" {
		t.Fatalf("got %q", got)
	}
	if SplitList("") != nil {
		t.Fatal("expected nil for empty input")
	}
}
