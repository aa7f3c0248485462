package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"smetka/internal/core"
)

func TestMemoryStoreSaveAndFind(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Payer{
		{Name: "Алфа ООД", EIK: "123456789", NAPOffice: "София"},
		{Name: "Дубликат", EIK: "123456789"},
		{Name: "Невалиден", EIK: "12"},
	})
	payers, err := s.ListPayers(ctx)
	if err != nil || len(payers) != 1 || payers[0].Name != "Алфа ООД" {
		t.Fatalf("unexpected list: payers=%v err=%v", payers, err)
	}

	if err := s.SavePayer(ctx, core.Payer{Name: " Бета ЕООД ", EIK: "1234567890123"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := s.FindPayer(ctx, "1234567890123")
	if err != nil || p.Name != "Бета ЕООД" {
		t.Fatalf("unexpected find: p=%+v err=%v", p, err)
	}

	if err := s.SavePayer(ctx, core.Payer{Name: "Алфа АД", EIK: "123456789", NAPOffice: "Варна"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	p, _ = s.FindPayer(ctx, "123456789")
	if p.Name != "Алфа АД" || p.NAPOffice != "Варна" {
		t.Fatalf("payer not replaced: %+v", p)
	}
	if payers, _ := s.ListPayers(ctx); len(payers) != 2 {
		t.Fatalf("expected 2 payers, got %d", len(payers))
	}
}

func TestMemoryStoreErrors(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	if _, err := s.FindPayer(ctx, "999999999"); !errors.Is(err, core.ErrPayerNotFound) {
		t.Fatalf("expected ErrPayerNotFound, got %v", err)
	}
	if err := s.SavePayer(ctx, core.Payer{Name: "X", EIK: "abc"}); !errors.Is(err, core.ErrInvalidEIK) {
		t.Fatalf("expected ErrInvalidEIK, got %v", err)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	payers, _ := s.ListPayers(context.Background())
	if len(payers) != 1 {
		t.Fatalf("expected default payer when file missing, got %v", payers)
	}

	content := "# name|eik|nap\nАлфа ООД|123456789|София\n\nБета|987654321\nбез ЕИК\nАлфа ООД|123456789|Пловдив\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_payers.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	payers, _ = s.ListPayers(context.Background())
	if len(payers) != 2 || payers[0].NAPOffice != "София" || payers[1].EIK != "987654321" {
		t.Fatalf("unexpected payers: %+v", payers)
	}
}
