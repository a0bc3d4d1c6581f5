package lingua

import (
	"context"
	"sync"
	"testing"

	lingua "github.com/pemistahl/lingua-go"
)

func TestWarmupRejectsSingleLanguage(t *testing.T) {
	d := New(lingua.Russian)
	if err := d.Warmup(context.Background()); err == nil {
		t.Fatal("expected warmup error for a single candidate language")
	}
	if lang, confidence := d.Detect("Москва"); lang != "" || confidence != 0 {
		t.Fatalf("Detect() after failed warmup = %q %v, want low-confidence default", lang, confidence)
	}
}

func TestDetectEmptyTextLowConfidenceDefault(t *testing.T) {
	d := New()
	lang, confidence := d.Detect("   \n\t ")
	if lang != "" || confidence != 0 {
		t.Fatalf("expected low-confidence default, got %q %v", lang, confidence)
	}
}

func TestDetectRussianAndGerman(t *testing.T) {
	d := New()
	if err := d.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup() error = %v", err)
	}

	lang, confidence := d.Detect("Настоящим подтверждается, что договор аренды продлевается на один год.")
	if lang != "ru" {
		t.Fatalf("expected ru, got %q (confidence %v)", lang, confidence)
	}
	if confidence <= 0 {
		t.Fatalf("expected positive confidence, got %v", confidence)
	}

	lang, _ = d.Detect("Hiermit bestätigen wir den Eingang Ihres Schreibens vom dritten März.")
	if lang != "de" {
		t.Fatalf("expected de, got %q", lang)
	}
}

func TestConcurrentCallersObserveWarmDetector(t *testing.T) {
	d := New()
	const callers = 16
	text := "Die Kündigung des Vertrages wurde fristgerecht eingereicht und bestätigt."

	results := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			lang, _ := d.Detect(text)
			results[idx] = lang
		}(i)
	}
	wg.Wait()

	for i, lang := range results {
		if lang != results[0] {
			t.Fatalf("caller %d saw %q, caller 0 saw %q: results must be consistent", i, lang, results[0])
		}
	}
	if results[0] != "de" {
		t.Fatalf("expected de, got %q", results[0])
	}
}

func TestDetectDeterministic(t *testing.T) {
	d := New()
	text := "Das Finanzamt hat den Steuerbescheid für das vergangene Jahr zugestellt."
	firstLang, firstConf := d.Detect(text)
	for i := 0; i < 5; i++ {
		lang, conf := d.Detect(text)
		if lang != firstLang || conf != firstConf {
			t.Fatalf("expected stable result, got %q/%v then %q/%v", firstLang, firstConf, lang, conf)
		}
	}
}
