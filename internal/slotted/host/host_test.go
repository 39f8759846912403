package host

import (
	"hash/crc32"
	"testing"
)

func TestHashEmptyName(t *testing.T) {
	if got := Hash(""); got != 0 {
		t.Fatalf("Hash(\"\") = %v, want 0", got)
	}
}

func TestHashPacksLengthAboveChecksum(t *testing.T) {
	name := "game_attackairn"
	got := Hash(name)
	if want := uint64(len(name)); uint64(got)>>32 != want {
		t.Fatalf("length byte = %d, want %d", uint64(got)>>32, want)
	}
	if want := crc32.ChecksumIEEE([]byte(name)); uint32(got) != want {
		t.Fatalf("checksum = %#x, want %#x", uint32(got), want)
	}
}

func TestHashIgnoresCase(t *testing.T) {
	if Hash("FIGHTER_KIND_MARIO") != Hash("fighter_kind_mario") {
		t.Fatal("expected case-insensitive hash")
	}
}

func TestKindName(t *testing.T) {
	tests := []struct {
		category Category
		name     string
		want     string
	}{
		{CategoryFighter, "mario", "fighter_kind_mario"},
		{CategoryWeapon, "mario_fireball", "weapon_kind_mario_fireball"},
	}
	for _, tt := range tests {
		if got := KindName(tt.category, tt.name); got != tt.want {
			t.Fatalf("KindName(%v, %q) = %q, want %q", tt.category, tt.name, got, tt.want)
		}
	}
}

func TestSupportsCategory(t *testing.T) {
	if !SupportsCategory(CategoryFighter, CommandExpression) {
		t.Fatal("fighters run expression scripts")
	}
	if SupportsCategory(CategoryWeapon, CommandExpression) {
		t.Fatal("weapons have no expression stream")
	}
	if !SupportsCategory(CategoryWeapon, CommandSound) {
		t.Fatal("weapons run sound scripts")
	}
}

func TestParseStatusLine(t *testing.T) {
	for line := StatusPre; line <= StatusExit; line++ {
		got, ok := ParseStatusLine(line.String())
		if !ok || got != line {
			t.Fatalf("ParseStatusLine(%q) = %v, %v", line.String(), got, ok)
		}
	}
	if _, ok := ParseStatusLine("post"); ok {
		t.Fatal("expected unknown line to fail")
	}
}
