package normalize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestICD10(t *testing.T) {
	cases := map[string]string{
		"E11.9":   "E11.9",
		"e119":    "E11.9",
		" Z00.00": "Z00.00",
		"I10":     "I10",
		"z59.0 ":  "Z59.0",
		"":        "",
	}
	for in, want := range cases {
		if got := ICD10(in); got != want {
			t.Errorf("ICD10(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProcedureCode(t *testing.T) {
	if got := ProcedureCode(" 99213 "); got != "99213" {
		t.Errorf("got %q", got)
	}
	if got := ProcedureCode("g-2212"); got != "G2212" {
		t.Errorf("got %q", got)
	}
	if got := ProcedureCode(" - "); got != "" {
		t.Errorf("expected empty for punctuation-only code, got %q", got)
	}
}

func TestPlaceOfService(t *testing.T) {
	if got := PlaceOfService("2"); got != "02" {
		t.Errorf("got %q", got)
	}
	if got := PlaceOfService(" 23"); got != "23" {
		t.Errorf("got %q", got)
	}
}

func TestName(t *testing.T) {
	if got := Name("  Knee   Arthroscopy\tLeft "); got != "knee arthroscopy left" {
		t.Errorf("got %q", got)
	}
}

func TestMoney(t *testing.T) {
	if got := DollarsToCents(19.99); got != 1999 {
		t.Errorf("DollarsToCents: got %d", got)
	}
	if got := FormatCents(15000); got != "$150.00" {
		t.Errorf("FormatCents: got %q", got)
	}
	if got := FormatCents(-5); got != "-$0.05" {
		t.Errorf("FormatCents negative: got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-01", "03/01/2024", "2024-03-01T10:00:00Z"} {
		d := ParseDate(s)
		if d == nil {
			t.Fatalf("ParseDate(%q) returned nil", s)
		}
		if d.Year() != 2024 || d.Month() != 3 || d.Day() != 1 {
			t.Errorf("ParseDate(%q) = %v", s, d)
		}
	}
	if ParseDate("not a date") != nil {
		t.Error("expected nil for garbage")
	}
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := Fingerprint(map[string]string{"a": "1", "b": "2"})
	b := Fingerprint(map[string]string{"b": "2", "a": "1"})
	if a != b {
		t.Errorf("fingerprints differ: %s vs %s", a, b)
	}
	if a == Fingerprint(map[string]string{"a": "1", "b": "3"}) {
		t.Error("expected different fingerprint for different values")
	}
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	os.WriteFile(path, []byte("abc"), 0644)
	sum, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	if sum != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("unexpected sha: %s", sum)
	}
}
