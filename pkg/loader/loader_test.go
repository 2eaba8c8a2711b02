package loader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/readingbooks/backend/pkg/common"
	"github.com/readingbooks/backend/pkg/loader"
	"github.com/readingbooks/backend/pkg/loader/text"
)

func TestRegistryUnsupportedFormat(t *testing.T) {
	registry := loader.NewRegistry()
	registry.Register("text/plain", text.NewExtractor())

	doc := loader.Document{
		Data:      []byte("%PDF-1.4 pretend"),
		MediaType: "application/zip",
	}

	_, err := registry.Extract(context.Background(), doc)
	if !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Errorf("Extract() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestRegistryMediaTypeParameters(t *testing.T) {
	registry := loader.NewRegistry()
	registry.Register("text/plain", text.NewExtractor())

	doc := loader.Document{
		Data:      []byte("hello"),
		MediaType: "text/plain; charset=utf-8",
	}

	spans, err := registry.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(spans) != 1 {
		t.Fatalf("Extract() returned %d spans, want 1", len(spans))
	}
	if spans[0].Text != "hello" {
		t.Errorf("span text = %q, want %q", spans[0].Text, "hello")
	}
	if spans[0].Page != 1 {
		t.Errorf("span page = %d, want 1", spans[0].Page)
	}
}

func TestFullText(t *testing.T) {
	spans := []common.TextSpan{
		{Text: "page one\n", Start: 0, End: 9, Page: 1},
		{Text: "", Start: 9, End: 9, Page: 2},
		{Text: "page three\n", Start: 9, End: 20, Page: 3},
	}

	got := loader.FullText(spans)
	want := "page one\npage three\n"
	if got != want {
		t.Errorf("FullText() = %q, want %q", got, want)
	}
}
