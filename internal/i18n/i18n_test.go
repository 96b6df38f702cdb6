package i18n

import "testing"

func TestInit_TranslatesKnownMessages(t *testing.T) {
	t.Cleanup(func() { Init("en") })

	Init("fa")
	if got := T("Output: %s", "a.po"); got != "خروجی: a.po" {
		t.Fatalf("fa T = %q", got)
	}
	if got := N("%d entry failed.", "%d entries failed.", 3, 3); got != "3 ورودی ناموفق بودند." {
		t.Fatalf("fa N = %q", got)
	}

	Init("ar_EG")
	if got := T("Time: %s", "1s"); got != "الوقت: 1s" {
		t.Fatalf("ar T = %q", got)
	}
	if got := N("%d entry failed.", "%d entries failed.", 2, 2); got != "فشل مدخلان (2)." {
		t.Fatalf("ar N(2) = %q", got)
	}
}

func TestInit_UnknownLanguagePassesThrough(t *testing.T) {
	t.Cleanup(func() { Init("en") })

	Init("de")
	if got := T("Processed %d of %d entries.", 1, 2); got != "Processed 1 of 2 entries." {
		t.Fatalf("T = %q", got)
	}
	if got := N("%d entry failed.", "%d entries failed.", 1, 1); got != "1 entry failed." {
		t.Fatalf("N = %q", got)
	}
	if got := T("not in any catalog"); got != "not in any catalog" {
		t.Fatalf("T = %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "language_list", env: map[string]string{"LANGUAGE": "fa:en", "LANG": "ar_EG.UTF-8"}, want: "fa"},
		{name: "lc_all_strips_encoding", env: map[string]string{"LC_ALL": "ar_EG.UTF-8"}, want: "ar_EG"},
		{name: "strips_modifier", env: map[string]string{"LANG": "fa_IR@latin"}, want: "fa_IR"},
		{name: "posix_skipped", env: map[string]string{"LC_ALL": "C", "LANG": "POSIX"}, want: "en"},
		{name: "nothing_set", env: map[string]string{}, want: "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
				t.Setenv(key, tc.env[key])
			}
			if got := DetectLanguage(); got != tc.want {
				t.Fatalf("DetectLanguage() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUninitialized_FormatsDirectly(t *testing.T) {
	mu.Lock()
	saved := po
	po = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		po = saved
		mu.Unlock()
	})

	if got := T("Output: %s", "a.po"); got != "Output: a.po" {
		t.Fatalf("T = %q", got)
	}
	if got := T("100% done"); got != "100% done" {
		t.Fatalf("T without vars = %q", got)
	}
	if got := N("%d entry failed.", "%d entries failed.", 1, 1); got != "1 entry failed." {
		t.Fatalf("N(1) = %q", got)
	}
	if got := N("%d entry failed.", "%d entries failed.", 4, 4); got != "4 entries failed." {
		t.Fatalf("N(4) = %q", got)
	}
}
