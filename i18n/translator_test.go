package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("unknown_key", nil); msg == "unknown_key" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("unknown_key", nil); msg == "unknown key" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Placeholders(t *testing.T) {
	if msg := T("too_long", map[string]string{"max": "10"}); msg != "longer than 10 characters" {
		t.Fatalf("unexpected message: %q", msg)
	}
	if msg := T("too_long", nil); msg != "longer than ? characters" {
		t.Fatalf("unfilled placeholder should render as '?', got %q", msg)
	}
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown codes should echo the code, got %q", msg)
	}
}

type fixedTranslator string

func (f fixedTranslator) Message(string, map[string]string) string { return string(f) }

func TestSetTranslator(t *testing.T) {
	SetTranslator(fixedTranslator("x"))
	if msg := T("required", nil); msg != "x" {
		t.Fatalf("custom translator not used: %q", msg)
	}
	SetTranslator(nil)
	if msg := T("required", nil); msg != "mandatory key missing" {
		t.Fatalf("nil translator should restore the default, got %q", msg)
	}
}

func TestTranslator_ValuesAreNotRescanned(t *testing.T) {
	msg := T("pattern", map[string]string{"pattern": "^a{2}$"})
	if msg != "does not match ^a{2}$" {
		t.Fatalf("unexpected message: %q", msg)
	}
}
