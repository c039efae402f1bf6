package rss

import (
	"strings"
	"testing"

	"inklessnews/internal/domain"
)

func TestIsTruncated(t *testing.T) {
	t.Parallel()

	longContent := strings.Repeat("a", 150)

	cases := []struct {
		name  string
		entry domain.RawEntry
		want  bool
	}{
		{
			name:  "snippet only",
			entry: domain.RawEntry{ContentSnippet: "just a teaser"},
			want:  true,
		},
		{
			name:  "short full content",
			entry: domain.RawEntry{Content: "too short to be an article"},
			want:  true,
		},
		{
			name:  "full content at threshold",
			entry: domain.RawEntry{Content: strings.Repeat("b", 100)},
			want:  false,
		},
		{
			name:  "full content with snippet",
			entry: domain.RawEntry{Content: longContent, ContentSnippet: "teaser"},
			want:  false,
		},
		{
			name:  "neither content nor snippet",
			entry: domain.RawEntry{},
			want:  false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTruncated(tc.entry); got != tc.want {
				t.Fatalf("IsTruncated = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanonicalContent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		entry domain.RawEntry
		want  string
	}{
		{
			name:  "full content wins over snippet",
			entry: domain.RawEntry{Content: "<p>full body</p>", ContentSnippet: "snippet"},
			want:  "<p>full body</p>",
		},
		{
			name:  "snippet when no content",
			entry: domain.RawEntry{ContentSnippet: "snippet"},
			want:  "snippet",
		},
		{
			name:  "empty when neither",
			entry: domain.RawEntry{},
			want:  "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CanonicalContent(tc.entry); got != tc.want {
				t.Fatalf("CanonicalContent = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	got := CleanText("<p>Hello&nbsp;   <b>world</b></p>\n\n<p>again</p>", 0)
	if got != "Hello world again" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanTextTruncates(t *testing.T) {
	t.Parallel()

	got := CleanText("<p>"+strings.Repeat("x", 50)+"</p>", 10)
	if got != strings.Repeat("x", 10)+"..." {
		t.Fatalf("unexpected truncated text: %q", got)
	}
}
