package methodology

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Yurii-huang/Jarvis/pkg/types"
)

// FSStore keeps write-ups in one JSONL file under rootDir. Appends are the
// only mutation, so crash consistency reduces to line-level atomicity.
type FSStore struct {
	rootDir string
	mu      sync.Mutex
}

func NewFSStore(rootDir string) *FSStore {
	return &FSStore{rootDir: rootDir}
}

func (s *FSStore) path() string {
	return filepath.Join(s.rootDir, "methodologies.jsonl")
}

func (s *FSStore) Save(ctx context.Context, m Methodology) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.rootDir, 0755); err != nil {
		return fmt.Errorf("create methodology dir: %w", err)
	}
	if m.ID == "" {
		m.ID = types.GenerateID("mth")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal methodology: %w", err)
	}

	f, err := os.OpenFile(s.path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open methodology log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append methodology: %w", err)
	}
	return nil
}

func (s *FSStore) Find(ctx context.Context, problem string, limit int) ([]Methodology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open methodology log: %w", err)
	}
	defer f.Close()

	query := tokenize(problem)

	type scored struct {
		m     Methodology
		score float64
	}
	var candidates []scored

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var m Methodology
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			continue // tolerate a torn trailing line
		}
		if sc := overlap(query, tokenize(m.Problem)); sc > 0 {
			candidates = append(candidates, scored{m: m, score: sc})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan methodology log: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]Methodology, len(candidates))
	for i, c := range candidates {
		out[i] = c.m
	}
	return out, nil
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()[]{}\"'`")
		if len(w) > 2 {
			tokens[w] = struct{}{}
		}
	}
	return tokens
}

// overlap is the Jaccard index of the two token sets.
func overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for w := range a {
		if _, ok := b[w]; ok {
			common++
		}
	}
	union := len(a) + len(b) - common
	return float64(common) / float64(union)
}
