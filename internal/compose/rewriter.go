package compose

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wolfman30/sms-booking-bot/internal/escalation"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// Rewriter adjusts the tone of a message without changing its content.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, tone escalation.Tone) (string, error)
}

// PolishOutcome labels what happened to a tone pass.
type PolishOutcome string

const (
	PolishSkipped   PolishOutcome = "skipped"
	PolishRewritten PolishOutcome = "rewritten"
	PolishRejected  PolishOutcome = "rejected"
	PolishFailed    PolishOutcome = "failed"
)

const (
	minLengthRatio = 0.7
	maxLengthRatio = 1.5

	defaultPolishTimeout = 8 * time.Second
)

var (
	ErrEmptyRewrite  = errors.New("compose: rewrite is empty")
	ErrLengthDrift   = errors.New("compose: rewrite length drifted")
	ErrRefusalMarker = errors.New("compose: rewrite looks like a refusal")
	ErrURLDropped    = errors.New("compose: rewrite dropped a url")
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

type refusalMarker struct {
	word   string
	window int
}

var refusalMarkers = []refusalMarker{
	{"sorry", 30},
	{"apolog", 30},
	{"can't", 50},
	{"cannot", 50},
	{"unable", 50},
	{"won't", 50},
}

// SafeRewriter wraps a Rewriter so a failed or drifting rewrite always falls
// back to the original text.
type SafeRewriter struct {
	rewriter Rewriter
	timeout  time.Duration
	logger   *logging.Logger
}

// NewSafeRewriter wraps r. A nil r makes Polish the identity function.
func NewSafeRewriter(r Rewriter, timeout time.Duration, logger *logging.Logger) *SafeRewriter {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultPolishTimeout
	}
	return &SafeRewriter{rewriter: r, timeout: timeout, logger: logger}
}

// Polish returns the rewritten text when it passes validation, else original.
func (s *SafeRewriter) Polish(ctx context.Context, original string, tone escalation.Tone) (string, PolishOutcome) {
	if s == nil || s.rewriter == nil || strings.TrimSpace(original) == "" {
		return original, PolishSkipped
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rewritten, err := s.rewriter.Rewrite(ctx, original, tone)
	if err != nil {
		s.logger.Warn("tone rewrite failed, using template", "tone", string(tone), "error", err)
		return original, PolishFailed
	}
	rewritten = strings.TrimSpace(rewritten)
	if err := Validate(original, rewritten); err != nil {
		s.logger.Info("tone rewrite rejected, using template", "tone", string(tone), "reason", err.Error())
		return original, PolishRejected
	}
	return rewritten, PolishRewritten
}

// Validate checks that rewritten still carries original's content.
func Validate(original, rewritten string) error {
	if strings.TrimSpace(rewritten) == "" {
		return ErrEmptyRewrite
	}

	origLen := utf8.RuneCountInString(original)
	newLen := utf8.RuneCountInString(rewritten)
	if origLen > 0 {
		ratio := float64(newLen) / float64(origLen)
		if ratio < minLengthRatio || ratio > maxLengthRatio {
			return ErrLengthDrift
		}
	}

	head := strings.ToLower(rewritten)
	for _, m := range refusalMarkers {
		if strings.Contains(prefix(head, m.window), m.word) {
			return ErrRefusalMarker
		}
	}

	for _, u := range urlPattern.FindAllString(original, -1) {
		if !strings.Contains(rewritten, u) {
			return ErrURLDropped
		}
	}
	return nil
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
