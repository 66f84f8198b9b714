package objectstore

import (
	"testing"
	"time"
)

func TestBuildKey(t *testing.T) {
	uploadedAt := time.Date(2026, 8, 23, 15, 30, 0, 0, time.UTC)
	fileID := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"

	key := BuildKey(uploadedAt, fileID, "отчёт 2026.pdf")
	want := "uploads/2026-08-23/a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d/______2026.pdf"
	if key != want {
		t.Errorf("BuildKey = %q, ожидалось %q", key, want)
	}
}

func TestBuildKeyDateInUTC(t *testing.T) {
	// Дата в ключе всегда в UTC независимо от зоны uploadedAt
	msk := time.FixedZone("MSK", 3*3600)
	uploadedAt := time.Date(2026, 8, 24, 1, 30, 0, 0, msk) // 2026-08-23 22:30 UTC

	key := BuildKey(uploadedAt, "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d", "f.txt")
	if got := key[:len("uploads/2026-08-23")]; got != "uploads/2026-08-23" {
		t.Errorf("дата в ключе = %q, ожидалось uploads/2026-08-23", got)
	}
}

func TestParseFileID(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		wantID string
		wantOK bool
	}{
		{
			"корректный ключ",
			"uploads/2026-08-23/a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d/report.pdf",
			"a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
			true,
		},
		{
			"чужой префикс",
			"backups/2026-08-23/a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d/report.pdf",
			"", false,
		},
		{
			"мало сегментов",
			"uploads/2026-08-23",
			"", false,
		},
		{
			"сегмент не UUID",
			"uploads/2026-08-23/not-a-uuid/report.pdf",
			"", false,
		},
		{"пустой ключ", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := ParseFileID(tc.key)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, ожидалось %v", ok, tc.wantOK)
			}
			if id != tc.wantID {
				t.Errorf("id = %q, ожидалось %q", id, tc.wantID)
			}
		})
	}
}

func TestParseFileIDRoundTrip(t *testing.T) {
	fileID := "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	key := BuildKey(time.Now(), fileID, "файл с пробелами и ..слэшами/внутри.txt")

	got, ok := ParseFileID(key)
	if !ok {
		t.Fatalf("ParseFileID не распознал собственный ключ %q", key)
	}
	if got != fileID {
		t.Errorf("id = %q, ожидалось %q", got, fileID)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"отчёт.pdf", "_____.pdf"},
		{"with space.txt", "with_space.txt"},
		{"../../../etc/passwd", "passwd"},
		{"..\\..\\evil.exe", "evil.exe"},
		{"...", "file"},
		{"", "file"},
		{".hidden", "hidden"},
	}

	for _, tc := range tests {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, ожидалось %q", tc.in, got, tc.want)
		}
	}
}
