package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fortipass/fortipass-go/internal/crypto"
	"github.com/fortipass/fortipass-go/internal/model"
)

// recordTimeout bounds a single history write.
const recordTimeout = 5 * time.Second

var ErrGenerationInFlight = errors.New("a password is already being generated")

// HistoryRecorder stores metadata about generated passwords.
type HistoryRecorder interface {
	Record(ctx context.Context, rec *model.GenerationRecord) error
}

// GeneratorService handles password generation business logic.
type GeneratorService struct {
	defaultLength int
	history       HistoryRecorder

	// busy allows at most one generation in flight; overlapping calls are
	// rejected rather than queued.
	busy sync.Mutex
}

// NewGeneratorService creates a new GeneratorService. history may be nil.
func NewGeneratorService(defaultLength int, history HistoryRecorder) *GeneratorService {
	if defaultLength == 0 {
		defaultLength = crypto.DefaultLength
	}
	return &GeneratorService{
		defaultLength: defaultLength,
		history:       history,
	}
}

// Generate produces a password based on the given request and rates it.
// The in-flight guard covers generation only; the history write happens
// after it is released.
func (s *GeneratorService) Generate(ctx context.Context, sessionID string, req model.GenerateRequest) (model.GenerateResponse, error) {
	resp, err := s.generate(req)
	if err != nil {
		return model.GenerateResponse{}, err
	}

	if s.history != nil {
		s.record(ctx, sessionID, resp)
	}
	return resp, nil
}

func (s *GeneratorService) generate(req model.GenerateRequest) (model.GenerateResponse, error) {
	if !s.busy.TryLock() {
		return model.GenerateResponse{}, ErrGenerationInFlight
	}
	defer s.busy.Unlock()

	length, err := s.parseLength(req.Length)
	if err != nil {
		return model.GenerateResponse{}, err
	}

	opts := crypto.GeneratorOptions{
		Length:  length,
		Letters: boolOrDefault(req.Letters, true),
		Digits:  boolOrDefault(req.Digits, true),
		Special: boolOrDefault(req.Special, true),
	}
	classes := classNames(opts.Classes())

	slog.Debug("generating password", "length", length, "classes", classes)

	password, err := crypto.Generate(opts)
	if err != nil {
		slog.Warn("password generation rejected", "length", length, "classes", classes, "error", err)
		return model.GenerateResponse{}, err
	}

	rating, color := crypto.Evaluate(password)
	slog.Info("password generated", "length", length, "classes", classes, "strength", rating.String())

	return model.GenerateResponse{
		Password: password,
		Length:   len(password),
		Classes:  classes,
		Strength: rating.String(),
		Color:    string(color),
	}, nil
}

// record stores metadata about resp. Failures are logged, never returned.
func (s *GeneratorService) record(ctx context.Context, sessionID string, resp model.GenerateResponse) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	rec := &model.GenerationRecord{
		SessionID: sessionID,
		Length:    resp.Length,
		Classes:   strings.Join(resp.Classes, ","),
		Strength:  resp.Strength,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		slog.Warn("recording generation history failed", "error", err)
	}
}

// Evaluate rates an existing password.
func (s *GeneratorService) Evaluate(req model.StrengthRequest) model.StrengthResponse {
	rating, color := crypto.Evaluate(req.Password)
	return model.StrengthResponse{
		Strength: rating.String(),
		Color:    string(color),
	}
}

// parseLength turns the user-typed length into an integer, using the
// default for a blank value. Range checks are left to the generator.
func (s *GeneratorService) parseLength(raw model.LengthField) (int, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return s.defaultLength, nil
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", crypto.ErrInvalidLength, text)
	}
	return n, nil
}

func classNames(classes []crypto.Class) []string {
	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.String()
	}
	return names
}

// boolOrDefault returns the dereferenced pointer value, or the fallback if nil.
func boolOrDefault(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}
