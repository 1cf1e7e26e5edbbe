package procquery

import (
	"reflect"
	"testing"
)

func TestNewImageSetNormalizes(t *testing.T) {
	set := NewImageSet(" Game.EXE ", "", "steam.exe", "STEAM.exe")

	if set.Len() != 2 {
		t.Fatalf("expected 2 names, got %d (%v)", set.Len(), set.Names())
	}
	if !set.Has("game.exe") || !set.Has("GAME.exe") {
		t.Fatalf("expected case-insensitive lookup to match game.exe")
	}
	if set.Has("") {
		t.Fatalf("empty name must never be a member")
	}
}

func TestImageSetUnionAndMinus(t *testing.T) {
	a := NewImageSet("a.exe", "b.exe")
	b := NewImageSet("b.exe", "c.exe")

	if got := a.Union(b).Names(); !reflect.DeepEqual(got, []string{"a.exe", "b.exe", "c.exe"}) {
		t.Fatalf("unexpected union %v", got)
	}
	if got := b.Minus(a).Names(); !reflect.DeepEqual(got, []string{"c.exe"}) {
		t.Fatalf("unexpected difference %v", got)
	}
	if a.Len() != 2 || b.Len() != 2 {
		t.Fatalf("set operations must not mutate their operands")
	}
}
