package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"smetka/internal/core"
	ports "smetka/internal/sheets"
)

var _ ports.PayerDirectory = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	payers []core.Payer
	byEIK  map[string]int
}

// New keeps the first occurrence of each EIK and drops invalid entries.
func New(payers []core.Payer) *Store {
	s := &Store{byEIK: map[string]int{}}
	for _, p := range payers {
		p = normalize(p)
		if p.Validate() != nil {
			continue
		}
		if _, ok := s.byEIK[p.EIK]; ok {
			continue
		}
		s.byEIK[p.EIK] = len(s.payers)
		s.payers = append(s.payers, p)
	}
	return s
}

// NewFromFiles seeds the store from base/seed_payers.txt, one "name|eik|nap office"
// per line. A missing or empty file yields a single sample payer.
func NewFromFiles(base string) *Store {
	payers := readPayers(filepath.Join(base, "seed_payers.txt"))
	if len(payers) == 0 {
		payers = []core.Payer{{Name: "Примерно ООД", EIK: "000000000", NAPOffice: "София"}}
	}
	return New(payers)
}

func (s *Store) ListPayers(_ context.Context) ([]core.Payer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Payer(nil), s.payers...), nil
}

func (s *Store) FindPayer(_ context.Context, eik string) (core.Payer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byEIK[strings.TrimSpace(eik)]
	if !ok {
		return core.Payer{}, core.ErrPayerNotFound
	}
	return s.payers[i], nil
}

func (s *Store) SavePayer(_ context.Context, p core.Payer) error {
	p = normalize(p)
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.byEIK[p.EIK]; ok {
		s.payers[i] = p
		return nil
	}
	s.byEIK[p.EIK] = len(s.payers)
	s.payers = append(s.payers, p)
	return nil
}

func normalize(p core.Payer) core.Payer {
	return core.Payer{
		Name:      strings.TrimSpace(p.Name),
		EIK:       strings.TrimSpace(p.EIK),
		NAPOffice: strings.TrimSpace(p.NAPOffice),
	}
}

func readPayers(path string) []core.Payer {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Payer
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 2 {
			continue
		}
		p := core.Payer{Name: parts[0], EIK: parts[1]}
		if len(parts) == 3 {
			p.NAPOffice = parts[2]
		}
		out = append(out, p)
	}
	return out
}
