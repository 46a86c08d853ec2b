package main

import "testing"

func TestRunMountVerbRequiresExactlyOneMountpoint(t *testing.T) {
	if err := runMountVerb(nil); err == nil {
		t.Fatal("expected an error with no mountpoint given")
	}
	if err := runMountVerb([]string{"/mnt/a", "/mnt/b"}); err == nil {
		t.Fatal("expected an error with more than one mountpoint given")
	}
}
