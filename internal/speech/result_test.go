package speech

import "testing"

func TestParseResult(t *testing.T) {
	raw := `{
		"result": [
			{"conf": 0.97, "start": 0.33, "end": 0.81, "word": "hello"},
			{"conf": 0.62, "start": 0.90, "end": 1.20, "word": "there"}
		],
		"text": "hello there"
	}`

	result, err := parseResult(raw)
	if err != nil {
		t.Fatalf("parseResult: %v", err)
	}
	if result == nil {
		t.Fatal("parseResult returned nil for non-empty text")
	}
	if result.Text != "hello there" {
		t.Errorf("Text = %q", result.Text)
	}
	if len(result.Words) != 2 {
		t.Fatalf("len(Words) = %d, want 2", len(result.Words))
	}
	if result.Words[0].Word != "hello" || result.Words[0].Conf != 0.97 {
		t.Errorf("Words[0] = %+v", result.Words[0])
	}
	if result.Words[1].Start != 0.90 || result.Words[1].End != 1.20 {
		t.Errorf("Words[1] timing = %+v", result.Words[1])
	}
}

func TestParseResultEmpty(t *testing.T) {
	// Vosk reports silence as an empty text with no word list.
	result, err := parseResult(`{"text": ""}`)
	if err != nil {
		t.Fatalf("parseResult: %v", err)
	}
	if result != nil {
		t.Errorf("parseResult = %+v, want nil for empty text", result)
	}
}

func TestParseResultInvalid(t *testing.T) {
	if _, err := parseResult("not json"); err == nil {
		t.Error("parseResult of invalid JSON succeeded, want error")
	}
}

func TestParsePartial(t *testing.T) {
	text, err := parsePartial(`{"partial": "hello wor"}`)
	if err != nil {
		t.Fatalf("parsePartial: %v", err)
	}
	if text != "hello wor" {
		t.Errorf("partial = %q", text)
	}

	text, err = parsePartial(`{"partial": ""}`)
	if err != nil {
		t.Fatalf("parsePartial: %v", err)
	}
	if text != "" {
		t.Errorf("partial = %q, want empty", text)
	}
}
