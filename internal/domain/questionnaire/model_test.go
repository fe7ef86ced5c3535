package questionnaire

import (
	"encoding/json"
	"testing"
)

func TestParseOptions_LegacyStrings(t *testing.T) {
	opts, err := ParseOptions([]byte(`["Never","Sometimes","Always"]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Options{{"Never", 0}, {"Sometimes", 1}, {"Always", 2}}
	if !opts.Equal(want) {
		t.Errorf("got %v, want %v", opts, want)
	}
}

func TestParseOptions_Objects(t *testing.T) {
	opts, err := ParseOptions([]byte(`[{"text":"No","value":3},{"text":"Yes","value":3}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts) != 2 || opts[0].Value != 3 || opts[1].Value != 3 {
		t.Errorf("expected two options with value 3, got %v", opts)
	}
}

func TestParseOptions_SpanishKeys(t *testing.T) {
	opts, err := ParseOptions([]byte(`[{"texto":"Nunca","valor":0},{"texto":"Siempre","valor":5}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Options{{"Nunca", 0}, {"Siempre", 5}}
	if !opts.Equal(want) {
		t.Errorf("got %v, want %v", opts, want)
	}
}

func TestParseOptions_MissingValueDefaultsToIndex(t *testing.T) {
	opts, err := ParseOptions([]byte(`[{"text":"a"},{"texto":"b"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts[0].Value != 0 || opts[1].Value != 1 {
		t.Errorf("expected index values, got %v", opts)
	}
}

func TestParseOptions_Mixed(t *testing.T) {
	opts, err := ParseOptions([]byte(`["a",{"text":"b","value":7}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Options{{"a", 0}, {"b", 7}}
	if !opts.Equal(want) {
		t.Errorf("got %v, want %v", opts, want)
	}
}

func TestParseOptions_EmptyAndNull(t *testing.T) {
	for _, raw := range []string{"", "null", "[]"} {
		opts, err := ParseOptions([]byte(raw))
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if len(opts) != 0 {
			t.Errorf("%q: expected no options, got %v", raw, opts)
		}
	}
}

func TestParseOptions_Invalid(t *testing.T) {
	for _, raw := range []string{`{"text":"a"}`, `[1,2]`, `[{"text":5}]`} {
		if _, err := ParseOptions([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", raw)
		}
	}
}

func TestOptions_MarshalObjectForm(t *testing.T) {
	b, err := json.Marshal(Options{{"Never", 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `[{"text":"Never","value":0}]` {
		t.Errorf("unexpected encoding: %s", b)
	}
}

func TestOptions_UnmarshalInStruct(t *testing.T) {
	var q Question
	if err := json.Unmarshal([]byte(`{"text":"Q","options":["x","y"]}`), &q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Options) != 2 || q.Options[1].Value != 1 {
		t.Errorf("unexpected options: %v", q.Options)
	}
}

func TestOptions_Compact(t *testing.T) {
	got := Options{{" a ", 0}, {"", 1}, {"   ", 2}, {"d", 3}}.Compact()
	want := Options{{"a", 0}, {"d", 3}}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestQuestion_Usable(t *testing.T) {
	if (&Question{Options: Options{{"", 0}, {" ", 1}}}).Usable() {
		t.Error("expected question with blank options to be unusable")
	}
	if !(&Question{Options: Options{{"", 0}, {"ok", 1}}}).Usable() {
		t.Error("expected question with one non-blank option to be usable")
	}
}
