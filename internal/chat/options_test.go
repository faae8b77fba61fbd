package chat

import (
	"fmt"
	"testing"

	"github.com/Stage2Sec/frenzy/internal/block"
)

func labels(options []*block.Option) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Text.Text
	}
	return out
}

func TestSearchOptions(t *testing.T) {
	t.Run("starts-with matches come before contains matches", func(t *testing.T) {
		stored := []*block.Option{
			block.NewOption("Zebra", 1),
			block.NewOption("Alpha", 2),
			block.NewOption("Cat", 3),
		}

		got := labels(SearchOptions(stored, "a"))
		want := []string{"Alpha", "Zebra", "Cat"}
		if len(got) != len(want) {
			t.Fatalf("Expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Position %d: expected %q, got %q", i, want[i], got[i])
			}
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		stored := []*block.Option{block.NewOption("NTLM", 1000)}
		if got := SearchOptions(stored, "ntlm"); len(got) != 1 {
			t.Errorf("Expected 1 match, got %d", len(got))
		}
	})

	t.Run("no duplicates between the two passes", func(t *testing.T) {
		stored := []*block.Option{block.NewOption("aa", 1)}
		if got := SearchOptions(stored, "a"); len(got) != 1 {
			t.Errorf("Expected 1 match, got %d", len(got))
		}
	})

	t.Run("over the cap only starts-with matches are returned", func(t *testing.T) {
		var stored []*block.Option
		for i := 0; i < 60; i++ {
			stored = append(stored, block.NewOption(fmt.Sprintf("md%d", i), i))
		}
		for i := 0; i < 60; i++ {
			stored = append(stored, block.NewOption(fmt.Sprintf("hmac-md%d", i), i))
		}

		got := SearchOptions(stored, "md")
		if len(got) != 60 {
			t.Fatalf("Expected only the 60 starts-with matches, got %d", len(got))
		}
		for _, label := range labels(got) {
			if label[0] != 'm' {
				t.Errorf("Expected only starts-with matches, got %q", label)
			}
		}
	})
}
