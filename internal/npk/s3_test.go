package npk

import (
	stderrors "errors"
	"testing"

	"github.com/Stage2Sec/frenzy/internal/errors"
)

func TestLocation(t *testing.T) {
	store := &S3Store{
		defaultRegion:  "us-west-2",
		userdataBucket: "npk-userdata",
		dictionaryBuckets: map[string]string{
			"us-west-2": "npk-dict-west",
			"us-east-1": "npk-dict-east",
		},
	}

	t.Run("hash files use the userdata bucket", func(t *testing.T) {
		bucket, prefix, region, err := store.location(FileHash, "")
		if err != nil {
			t.Fatal(err)
		}
		if bucket != "npk-userdata" || prefix != "self/uploads" || region != "us-west-2" {
			t.Errorf("Unexpected location %s/%s in %s", bucket, prefix, region)
		}
	})

	t.Run("wordlists use the regional dictionary bucket", func(t *testing.T) {
		bucket, prefix, region, err := store.location(FileWordlist, "us-east-1")
		if err != nil {
			t.Fatal(err)
		}
		if bucket != "npk-dict-east" || prefix != "wordlist" || region != "us-east-1" {
			t.Errorf("Unexpected location %s/%s in %s", bucket, prefix, region)
		}
	})

	t.Run("rules share the dictionary bucket under their own prefix", func(t *testing.T) {
		bucket, prefix, _, err := store.location(FileRule, "")
		if err != nil {
			t.Fatal(err)
		}
		if bucket != "npk-dict-west" || prefix != "rules" {
			t.Errorf("Unexpected location %s/%s", bucket, prefix)
		}
	})

	t.Run("unmapped region is a typed not-found", func(t *testing.T) {
		_, _, _, err := store.location(FileWordlist, "eu-west-1")
		var notFound *errors.NotFoundError
		if !stderrors.As(err, &notFound) {
			t.Fatalf("Expected a NotFoundError, got %v", err)
		}
		if notFound.ID != "eu-west-1" {
			t.Errorf("Unexpected id %q", notFound.ID)
		}
	})
}

func TestSafeFileName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"hashes.txt", "hashes.txt"},
		{"My Hash Dump.TXT", "my-hash-dump.txt"},
		{"ntlm dump (2).txt", "ntlm-dump-2.txt"},
		{".txt", "upload.txt"},
		{"noextension", "noextension"},
	}
	for _, c := range cases {
		if got := safeFileName(c.name); got != c.want {
			t.Errorf("safeFileName(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}
