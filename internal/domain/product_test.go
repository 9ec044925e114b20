package domain

import (
	"encoding/json"
	"testing"
)

func TestSpecListKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	specs := NewSpecList()
	specs.Set("Length", "150 mm")
	specs.Set("Weight", "1.5 lb")
	specs.Set("Material", "CVM steel")

	pairs := specs.Pairs()
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d", len(pairs))
	}

	want := []string{"Length", "Weight", "Material"}
	for i, key := range want {
		if pairs[i].Key != key {
			t.Fatalf("pair %d: expected key %s, got %s", i, key, pairs[i].Key)
		}
	}
}

func TestSpecListOverwriteKeepsPosition(t *testing.T) {
	t.Parallel()

	specs := NewSpecList()
	specs.Set("Length", "150 mm")
	specs.Set("Weight", "1.5 lb")
	specs.Set("Length", "160 mm")

	if specs.Len() != 2 {
		t.Fatalf("expected 2 pairs after overwrite, got %d", specs.Len())
	}

	pairs := specs.Pairs()
	if pairs[0].Key != "Length" || pairs[0].Value != "160 mm" {
		t.Fatalf("expected Length=160 mm first, got %s=%s", pairs[0].Key, pairs[0].Value)
	}
	if pairs[1].Key != "Weight" {
		t.Fatalf("expected Weight second, got %s", pairs[1].Key)
	}
}

func TestSpecListMarshalJSON(t *testing.T) {
	t.Parallel()

	specs := NewSpecList()
	specs.Set("B key", `with "quotes"`)
	specs.Set("A key", "value")

	raw, err := json.Marshal(specs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"B key":"with \"quotes\"","A key":"value"}`
	if string(raw) != want {
		t.Fatalf("unexpected JSON: %s", raw)
	}

	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if decoded["A key"] != "value" {
		t.Fatalf("unexpected decoded value: %v", decoded)
	}
}

func TestSpecListEmptyMarshalsToObject(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(NewSpecList())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("expected {}, got %s", raw)
	}
}

func TestLocalizationOutcomeRender(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		outcome LocalizationOutcome
		want    string
	}{
		{
			name:    "ok renders text",
			outcome: LocalizationOutcome{Status: LocalizationOK, Text: "Descripción"},
			want:    "Descripción",
		},
		{
			name:    "skipped renders text",
			outcome: LocalizationOutcome{Status: LocalizationSkipped, Text: "API key not provided. Translation skipped."},
			want:    "API key not provided. Translation skipped.",
		},
		{
			name:    "failed renders sentinel with detail",
			outcome: LocalizationOutcome{Status: LocalizationFailed, Detail: "OpenAI API Error: boom"},
			want:    "NOT FOUND - OpenAI API Error: boom",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.outcome.Render(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
