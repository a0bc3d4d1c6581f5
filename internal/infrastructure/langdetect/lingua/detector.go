// Package lingua wraps the lingua-go language identifier behind a
// lock-guarded warm-up so concurrent callers never race into an
// uninitialized model.
package lingua

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lingua "github.com/pemistahl/lingua-go"
)

var defaultLanguages = []lingua.Language{
	lingua.Russian,
	lingua.German,
	lingua.English,
	lingua.French,
	lingua.Ukrainian,
}

type Detector struct {
	languages []lingua.Language

	once     sync.Once
	detector lingua.LanguageDetector
	warmErr  error
}

func New(languages ...lingua.Language) *Detector {
	if len(languages) == 0 {
		languages = defaultLanguages
	}
	return &Detector{languages: languages}
}

// Warmup loads the language profiles exactly once. Callers arriving
// during the load block until it completes and all observe the same
// ready detector.
func (d *Detector) Warmup(_ context.Context) error {
	d.once.Do(func() {
		// the lingua builder panics below this bound
		if len(d.languages) < 2 {
			d.warmErr = fmt.Errorf("need at least two candidate languages, got %d", len(d.languages))
			return
		}
		start := time.Now()
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(d.languages...).
			WithPreloadedLanguageModels().
			Build()
		slog.Info("language detector warmed up", "duration_ms", time.Since(start).Milliseconds())
	})
	return d.warmErr
}

// Detect returns the ISO 639-1 code of the most likely language and its
// confidence. Empty or near-empty text yields a low-confidence default
// instead of an error. Deterministic for identical input.
func (d *Detector) Detect(text string) (string, float64) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", 0
	}
	if err := d.Warmup(context.Background()); err != nil {
		return "", 0
	}

	values := d.detector.ComputeLanguageConfidenceValues(trimmed)
	if len(values) == 0 {
		return "", 0
	}
	best := values[0]
	return strings.ToLower(best.Language().IsoCode639_1().String()), best.Value()
}
