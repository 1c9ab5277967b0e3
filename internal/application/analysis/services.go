package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bryanwahyu/rfp-analyzer/internal/application"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/ai"
	domain "github.com/bryanwahyu/rfp-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/rfp-analyzer/internal/domain/documents"
	"github.com/bryanwahyu/rfp-analyzer/internal/infra/ai/prompt"
)

// DefaultMaxTextChars caps the verbatim text sent to the model.
const DefaultMaxTextChars = 100_000

// Service implements the analyze use-case: store, prepare, infer, normalize, merge.
// One call runs strictly in sequence; concurrent calls share nothing but the store.
type Service struct {
	Store     documents.BlobStore
	Extractor documents.TextExtractor
	Client    ai.Client
	Clock     application.Clock
	Logger    *slog.Logger

	MaxTextChars int
	// Strict turns shape violations into MalformedAnalysisError instead of reporting them.
	Strict bool
}

func (s *Service) log() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Service) now() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// Analyze runs the whole pipeline for one upload.
func (s *Service) Analyze(ctx context.Context, up documents.Upload) (domain.Combined, error) {
	if up.Empty() {
		s.log().Info("no file provided")
		return domain.Combined{}, domain.ErrNoFile
	}
	log := s.log().With("file", up.Name, "mediaType", up.MediaType)
	log.Info("file received", "size", len(up.Data))

	// 1. simpan dulu, gagal simpan = stop
	meta, err := s.Store.Save(ctx, up.Data, up.Name, up.MediaType)
	if err != nil {
		log.Error("file save failed", "err", err)
		return domain.Combined{}, err
	}
	log = log.With("id", meta.ID)
	log.Info("file saved", "path", meta.FilePath)

	// 2. siapkan input model
	input, err := s.Prepare(ctx, up)
	if err != nil {
		log.Info("document rejected", "err", err, "strategy", input.Extraction.Strategy)
		return domain.Combined{}, err
	}
	log.Info("input prepared",
		"strategy", input.Extraction.Strategy,
		"fallback", input.Extraction.Fallback,
		"chars", input.Extraction.Characters,
		"truncated", input.Extraction.Truncated)

	// 3. satu kali panggil model, tanpa retry
	log.Info("sending prompt", "provider", s.Client.Name())
	raw, err := s.Client.Analyze(ctx, input.Prompt)
	if err != nil {
		log.Error("inference failed", "provider", s.Client.Name(), "err", err)
		return domain.Combined{}, &ai.InvocationError{Provider: s.Client.Name(), Err: err}
	}
	log.Info("response received", "bytes", len(raw))

	// 4. normalisasi
	res, violations, err := domain.Normalize(raw)
	if err != nil {
		log.Error("model output unparseable", "err", err)
		return domain.Combined{}, err
	}
	if len(violations) > 0 {
		log.Warn("analysis shape violations", "count", len(violations), "violations", violations)
		if s.Strict {
			return domain.Combined{}, &domain.MalformedAnalysisError{Raw: raw, Violations: violations}
		}
	}

	// 5. gabungkan
	return domain.Combined{
		Result:       res,
		RiskLabels:   res.DisplayRisks(),
		FileMetadata: meta,
		Extraction:   input.Extraction,
		Validation:   domain.Validation{Valid: len(violations) == 0, Violations: violations},
		AnalyzedAt:   s.now().Now().UTC(),
	}, nil
}

// Input is the prepared model request plus how it was produced.
type Input struct {
	Prompt     ai.Prompt
	Extraction domain.Extraction
}

// Prepare selects the strategy once and builds the prompt. Empty text is rejected here,
// before any inference call.
func (s *Service) Prepare(ctx context.Context, up documents.Upload) (Input, error) {
	strategy := documents.SelectStrategy(up.MediaType)
	in := Input{
		Prompt:     ai.Prompt{Instruction: prompt.Instruction},
		Extraction: domain.Extraction{Strategy: strategy},
	}

	var text string
	switch strategy {
	case documents.StrategyInline:
		in.Prompt.Inline = inlineBlob(up)
		return in, nil

	case documents.StrategyStructuredExtract:
		extracted, err := s.extract(ctx, up)
		if err != nil {
			// extractor gagal: kirim bytes apa adanya
			s.log().Warn("structured extraction failed, sending inline", "file", up.Name, "err", err)
			in.Prompt.Inline = inlineBlob(up)
			in.Extraction.Fallback = true
			return in, nil
		}
		text = extracted

	default:
		text = strings.ToValidUTF8(string(up.Data), string(utf8.RuneError))
	}

	if strings.TrimSpace(text) == "" {
		return in, domain.ErrEmptyDocument
	}

	text, truncated := truncate(text, s.maxChars())
	in.Prompt.Text = text
	in.Extraction.Characters = utf8.RuneCountInString(text)
	in.Extraction.Truncated = truncated
	return in, nil
}

func (s *Service) extract(ctx context.Context, up documents.Upload) (string, error) {
	if s.Extractor == nil {
		return "", errors.New("no extractor configured")
	}
	text, err := s.Extractor.Extract(ctx, up.MediaType, up.Data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", up.MediaType, err)
	}
	return text, nil
}

func (s *Service) maxChars() int {
	if s.MaxTextChars <= 0 {
		return DefaultMaxTextChars
	}
	return s.MaxTextChars
}

func inlineBlob(up documents.Upload) *ai.Blob {
	mt := documents.BaseMediaType(up.MediaType)
	if mt == "" {
		mt = documents.MediaTypeOctet
	}
	return &ai.Blob{MIMEType: mt, Data: up.Data}
}

// truncate keeps the first limit runes.
func truncate(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
