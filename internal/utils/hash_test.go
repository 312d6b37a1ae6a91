package utils

import "testing"

func TestHashStringToUint64(t *testing.T) {
	if HashStringToUint64("abc") != HashStringToUint64("abc") {
		t.Fatal("same input must hash identically")
	}
	if HashStringToUint64("abc") == HashStringToUint64("abd") {
		t.Fatal("different inputs should not collide on a trivial case")
	}
}
