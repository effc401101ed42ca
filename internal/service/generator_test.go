package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fortipass/fortipass-go/internal/crypto"
	"github.com/fortipass/fortipass-go/internal/model"
)

func boolPtr(b bool) *bool { return &b }

type fakeHistory struct {
	records []model.GenerationRecord
	err     error
}

func (f *fakeHistory) Record(_ context.Context, rec *model.GenerationRecord) error {
	if f.err != nil {
		return f.err
	}
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeHistory) ListRecent(_ context.Context, limit int) ([]model.GenerationRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func TestGenerate_Defaults(t *testing.T) {
	svc := NewGeneratorService(0, nil)
	resp, err := svc.Generate(context.Background(), "", model.GenerateRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Length != 12 {
		t.Errorf("expected length 12, got %d", resp.Length)
	}
	if len(resp.Password) != 12 {
		t.Errorf("expected password length 12, got %d", len(resp.Password))
	}
	if resp.Strength != "strong" || resp.Color != "green" {
		t.Errorf("expected strong/green, got %s/%s", resp.Strength, resp.Color)
	}
	if strings.Join(resp.Classes, ",") != "letters,digits,special" {
		t.Errorf("unexpected classes %v", resp.Classes)
	}
}

func TestGenerate_BlankLengthUsesConfiguredDefault(t *testing.T) {
	svc := NewGeneratorService(20, nil)
	resp, err := svc.Generate(context.Background(), "", model.GenerateRequest{Length: "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Length != 20 {
		t.Errorf("expected length 20, got %d", resp.Length)
	}
}

func TestGenerate_CustomOptions(t *testing.T) {
	svc := NewGeneratorService(0, nil)
	resp, err := svc.Generate(context.Background(), "", model.GenerateRequest{
		Length:  " 32 ",
		Letters: boolPtr(true),
		Digits:  boolPtr(false),
		Special: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Length != 32 {
		t.Errorf("expected length 32, got %d", resp.Length)
	}
	for _, c := range resp.Password {
		if !strings.ContainsRune(crypto.Letters.Alphabet(), c) {
			t.Errorf("unexpected character %q in letters-only password", c)
		}
	}
}

func TestGenerate_InvalidLength(t *testing.T) {
	svc := NewGeneratorService(0, nil)
	for _, length := range []model.LengthField{"3", "129", "abc", "12.5"} {
		_, err := svc.Generate(context.Background(), "", model.GenerateRequest{Length: length})
		if !errors.Is(err, crypto.ErrInvalidLength) {
			t.Errorf("length %q: expected ErrInvalidLength, got %v", length, err)
		}
	}
}

func TestGenerate_NoClassSelected(t *testing.T) {
	svc := NewGeneratorService(0, nil)
	_, err := svc.Generate(context.Background(), "", model.GenerateRequest{
		Length:  model.Int(16),
		Letters: boolPtr(false),
		Digits:  boolPtr(false),
		Special: boolPtr(false),
	})
	if !errors.Is(err, crypto.ErrNoClassSelected) {
		t.Fatalf("expected ErrNoClassSelected, got %v", err)
	}
}

func TestGenerate_InFlight(t *testing.T) {
	svc := NewGeneratorService(0, nil)
	svc.busy.Lock()

	_, err := svc.Generate(context.Background(), "", model.GenerateRequest{})
	if !errors.Is(err, ErrGenerationInFlight) {
		t.Fatalf("expected ErrGenerationInFlight, got %v", err)
	}

	svc.busy.Unlock()
	if _, err := svc.Generate(context.Background(), "", model.GenerateRequest{}); err != nil {
		t.Fatalf("unexpected error after previous call finished: %v", err)
	}
}

func TestGenerate_RecordsHistory(t *testing.T) {
	history := &fakeHistory{}
	svc := NewGeneratorService(0, history)

	resp, err := svc.Generate(context.Background(), "session-1", model.GenerateRequest{
		Length:  model.Int(8),
		Special: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(history.records) != 1 {
		t.Fatalf("expected 1 history record, got %d", len(history.records))
	}
	rec := history.records[0]
	if rec.SessionID != "session-1" || rec.Length != 8 || rec.Classes != "letters,digits" || rec.Strength != resp.Strength {
		t.Errorf("unexpected history record %+v", rec)
	}
	if strings.Contains(rec.Classes+rec.Strength+rec.SessionID, resp.Password) {
		t.Error("history record must not contain the password")
	}
}

// blockingHistory holds every Record call until release is closed.
type blockingHistory struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingHistory) Record(ctx context.Context, _ *model.GenerationRecord) error {
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestGenerate_SlowHistoryDoesNotHoldGuard(t *testing.T) {
	history := &blockingHistory{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	svc := NewGeneratorService(0, history)

	first := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), "session-1", model.GenerateRequest{})
		first <- err
	}()

	select {
	case <-history.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first generation never reached the history write")
	}

	second := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), "session-1", model.GenerateRequest{})
		second <- err
	}()
	select {
	case <-history.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("second generation never reached the history write")
	}

	close(history.release)
	for _, ch := range []chan error{first, second} {
		if err := <-ch; err != nil {
			t.Errorf("unexpected error while history write was pending: %v", err)
		}
	}
}

func TestGenerate_HistoryWriteIsBounded(t *testing.T) {
	history := &blockingHistory{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	svc := NewGeneratorService(0, history)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctx, "", model.GenerateRequest{})
		done <- err
	}()

	<-history.entered
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("history cancellation must not fail generation: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Generate did not return after its context ended")
	}
}

func TestGenerate_HistoryFailureIsNotFatal(t *testing.T) {
	svc := NewGeneratorService(0, &fakeHistory{err: errors.New("db down")})
	if _, err := svc.Generate(context.Background(), "", model.GenerateRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerate_RejectedRequestIsNotRecorded(t *testing.T) {
	history := &fakeHistory{}
	svc := NewGeneratorService(0, history)
	if _, err := svc.Generate(context.Background(), "", model.GenerateRequest{Length: "2"}); err == nil {
		t.Fatal("expected error")
	}
	if len(history.records) != 0 {
		t.Errorf("expected no history records, got %d", len(history.records))
	}
}

func TestEvaluate(t *testing.T) {
	svc := NewGeneratorService(0, nil)
	tests := []struct {
		password, strength, color string
	}{
		{"Aa1!Aa1!Aa1!", "strong", "green"},
		{"Weak1234", "medium", "orange"},
		{"123", "weak", "red"},
	}
	for _, tt := range tests {
		resp := svc.Evaluate(model.StrengthRequest{Password: tt.password})
		if resp.Strength != tt.strength || resp.Color != tt.color {
			t.Errorf("Evaluate(%q) = %s/%s, want %s/%s", tt.password, resp.Strength, resp.Color, tt.strength, tt.color)
		}
	}
}

func TestHistoryList(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{records: []model.GenerationRecord{
		{ID: 2, SessionID: "s", Length: 16, Classes: "letters,special", Strength: "strong", CreatedAt: created},
		{ID: 1, SessionID: "s", Length: 8, Classes: "", Strength: "weak", CreatedAt: created},
	}}
	svc := NewHistoryService(history)

	got, err := svc.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != 2 || len(got[0].Classes) != 2 || got[0].Classes[1] != "special" {
		t.Errorf("unexpected first record %+v", got[0])
	}
	if got[1].Classes != nil {
		t.Errorf("expected no classes, got %v", got[1].Classes)
	}
	if !got[0].CreatedAt.Equal(created) {
		t.Errorf("unexpected created_at %v", got[0].CreatedAt)
	}
}

func TestRecordsToResponse_EmptySlice(t *testing.T) {
	result := recordsToResponse(nil)

	if result == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(result) != 0 {
		t.Errorf("expected 0 records, got %d", len(result))
	}
}
