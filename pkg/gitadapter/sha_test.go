package gitadapter_test

import (
	"testing"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

func TestBlobSha(t *testing.T) {
	// git hash-object of the same content
	cases := map[string]string{
		"":              "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391",
		"hello world\n": "3b18e512dba79e4c8300dd08aeb37f8e728b8dad",
	}
	for content, expected := range cases {
		if got := gitadapter.BlobSha(content); got != expected {
			t.Errorf("BlobSha(%q)=%s, expected %s", content, got, expected)
		}
	}
}

func TestIsCommitSha(t *testing.T) {
	cases := map[string]bool{
		"3b18e512dba79e4c8300dd08aeb37f8e728b8dad":  true,
		"3b18e512":                                  false,
		"":                                          false,
		"zz18e512dba79e4c8300dd08aeb37f8e728b8dad":  false,
		"3b18e512dba79e4c8300dd08aeb37f8e728b8dad0": false,
	}
	for s, expected := range cases {
		if got := gitadapter.IsCommitSha(s); got != expected {
			t.Errorf("IsCommitSha(%s)=%t, expected %t", s, got, expected)
		}
	}
}

func TestBlobDecoded(t *testing.T) {
	b := &gitadapter.Blob{Sha: "x", Content: "aGVs\nbG8=\n", Encoding: "base64"}
	got, err := b.Decoded()
	if err != nil || got != "hello" {
		t.Fatalf("Decoded()=%q,%v expected hello", got, err)
	}
	plain := &gitadapter.Blob{Content: "raw", Encoding: "utf-8"}
	if got, _ := plain.Decoded(); got != "raw" {
		t.Fatalf("Decoded()=%q expected raw", got)
	}
}
