package util

import (
	"testing"
	"unicode/utf8"
)

func TestMaskIdentifier(t *testing.T) {
	cases := map[string]string{
		"":                  "",
		"alice@example.com": "a***@example.com",
		"@example.com":      "***@example.com",
		"+15551234567":      "+1******4567",
		"1234":              "****",
		"5551234":           "***1234",
	}
	for in, want := range cases {
		if got := MaskIdentifier(in); got != want {
			t.Fatalf("MaskIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskIdentifierKeepsWholeRunes(t *testing.T) {
	cases := map[string]string{
		"élodie@example.com": "é***@example.com",
		"李雷@example.cn":      "李***@example.cn",
		"电话号码一二三四五":          "电话***二三四五",
	}
	for in, want := range cases {
		got := MaskIdentifier(in)
		if !utf8.ValidString(got) {
			t.Fatalf("MaskIdentifier(%q) produced invalid UTF-8 %q", in, got)
		}
		if got != want {
			t.Fatalf("MaskIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHideSecret(t *testing.T) {
	if got := HideSecret("abcdef0123456789"); got != "abcd...6789" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := HideSecret("ab"); got != "ab" {
		t.Fatalf("unexpected mask %q", got)
	}
}

func TestMaskSensitiveQuery(t *testing.T) {
	got := MaskSensitiveQuery("next=%2Fadmin&ticket=abcdef0123456789")
	if got != "next=%2Fadmin&ticket=abcd...6789" {
		t.Fatalf("unexpected masked query %q", got)
	}
	if got := MaskSensitiveQuery("page=2"); got != "page=2" {
		t.Fatalf("expected untouched query, got %q", got)
	}
}
