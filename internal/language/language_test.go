package language

import "testing"

func TestGetLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"fa", "Persian", true},
		{"AR", "Arabic", true},
		{"fa_IR", "Persian", true},
		{"en-GB", "English", true},
		{"de", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		lang, ok := GetLanguage(tc.in)
		if ok != tc.ok || lang.Name != tc.want {
			t.Errorf("GetLanguage(%q) = (%q, %v), want (%q, %v)", tc.in, lang.Name, ok, tc.want, tc.ok)
		}
	}
}

func TestDisplayName_Fallback(t *testing.T) {
	if got := DisplayName("ar"); got != "Arabic" {
		t.Fatalf("DisplayName(ar) = %q", got)
	}
	if got := DisplayName("xx"); got != "xx" {
		t.Fatalf("DisplayName(xx) = %q", got)
	}
}

func TestPluralCounts(t *testing.T) {
	for code, lang := range Languages {
		if lang.Plurals < 1 {
			t.Errorf("%s: nplurals must be positive", code)
		}
		if lang.Code != code {
			t.Errorf("%s: code mismatch %q", code, lang.Code)
		}
	}
	if Languages["ar"].Plurals != 6 {
		t.Fatalf("arabic should have six plural forms")
	}
}

func TestSupportedOrder(t *testing.T) {
	got := GetSupportedLanguages()
	if len(got) != 3 || got[0].Name != "Arabic" || got[2].Name != "Persian" {
		t.Fatalf("unexpected order: %+v", got)
	}
	codes := Codes()
	if codes[0] != "ar" || codes[1] != "en" || codes[2] != "fa" {
		t.Fatalf("Codes() = %v", codes)
	}
}
