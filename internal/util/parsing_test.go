package util

import "testing"

func TestParseAcceptHeader_InvalidQualityNormalisesToOne(t *testing.T) {
	entries := ParseAcceptHeader("x;q=invalid")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].MediaType != "x" {
		t.Errorf("expected media type %q, got %q", "x", entries[0].MediaType)
	}
	if entries[0].Quality != 1.0 {
		t.Errorf("expected invalid q to normalise to 1.0, got %v", entries[0].Quality)
	}
}

func TestParseAcceptHeader_SortsByDescendingQuality(t *testing.T) {
	entries := ParseAcceptHeader("text/plain;q=0.5, application/json;q=0.9, */*;q=0.1")
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].MediaType != "application/json" {
		t.Errorf("expected highest quality entry first, got %q", entries[0].MediaType)
	}
	if entries[2].MediaType != "*/*" {
		t.Errorf("expected lowest quality entry last, got %q", entries[2].MediaType)
	}
}

func TestParseAcceptHeader_DefaultsMissingQualityToOne(t *testing.T) {
	entries := ParseAcceptHeader("text/plain")
	if len(entries) != 1 || entries[0].Quality != 1.0 {
		t.Fatalf("expected a single entry with quality 1.0, got %+v", entries)
	}
}

func TestParseAcceptHeader_EmptyHeaderReturnsNil(t *testing.T) {
	if entries := ParseAcceptHeader(""); entries != nil {
		t.Errorf("expected nil for empty header, got %+v", entries)
	}
}
