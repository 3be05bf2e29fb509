package prompt

import (
	"strings"
	"testing"
)

func TestCombineAllDefaults(t *testing.T) {
	got := Combine(Sections{AdvancedEnabled: true, DictionaryEnabled: true})

	for _, section := range []string{MainDefault, AdvancedDefault, DictionaryDefault} {
		if !strings.Contains(got, section) {
			t.Errorf("Expected combined prompt to contain section starting %q", section[:40])
		}
	}
}

func TestCombineMainOnly(t *testing.T) {
	got := Combine(Sections{})

	if got != MainDefault {
		t.Error("Expected main-only combination to equal the main default")
	}
	if strings.Contains(got, "Backtrack Corrections") {
		t.Error("Expected advanced section to be excluded")
	}
	if strings.Contains(got, "Personal Dictionary") {
		t.Error("Expected dictionary section to be excluded")
	}
}

func TestCombineCustomOverrides(t *testing.T) {
	got := Combine(Sections{
		MainCustom:        "custom main",
		AdvancedEnabled:   true,
		AdvancedCustom:    "custom advanced",
		DictionaryEnabled: true,
		DictionaryCustom:  "custom dictionary",
	})

	want := "custom main\n\ncustom advanced\n\ncustom dictionary"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestCombineDisabledCustomIgnored(t *testing.T) {
	got := Combine(Sections{
		AdvancedCustom:   "should not appear",
		DictionaryCustom: "should not appear either",
	})

	if strings.Contains(got, "should not appear") {
		t.Error("Expected custom text of disabled sections to be ignored")
	}
}
