package words

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
)

//go:embed worddata.json
var defaultWordData []byte

// Category is a group of words keyed by difficulty.
type Category struct {
	ID    string                  `json:"id"`
	Name  string                  `json:"name"`
	Icon  string                  `json:"icon"`
	Words map[Difficulty][]string `json:"words"`
}

// WordsFor returns the category's words for a single difficulty.
func (c Category) WordsFor(d Difficulty) []string {
	return c.Words[d]
}

// AllWords returns every word in the category across difficulties, in difficulty order.
func (c Category) AllWords() []string {
	var all []string
	for _, d := range AllDifficulties() {
		all = append(all, c.Words[d]...)
	}
	return all
}

// Pick is a word drawn from the corpus together with its source category.
type Pick struct {
	Word     string
	Category Category
}

// Filter narrows the word pool. An empty CategoryIDs set means every category.
type Filter struct {
	CategoryIDs  map[string]bool
	Difficulties map[Difficulty]bool
}

// NewFilter builds a Filter from slices.
func NewFilter(categoryIDs []string, difficulties []Difficulty) Filter {
	f := Filter{
		CategoryIDs:  make(map[string]bool, len(categoryIDs)),
		Difficulties: make(map[Difficulty]bool, len(difficulties)),
	}
	for _, id := range categoryIDs {
		f.CategoryIDs[id] = true
	}
	for _, d := range difficulties {
		f.Difficulties[d] = true
	}
	return f
}

type corpusFile struct {
	Categories []Category `json:"categories"`
}

// Corpus is the word corpus service. It is safe for concurrent use.
type Corpus struct {
	categories []Category

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCorpus returns a corpus over categories that draws with rng.
func NewCorpus(categories []Category, rng *rand.Rand) *Corpus {
	return &Corpus{categories: categories, rng: rng}
}

// Parse decodes word data JSON from r.
func Parse(r io.Reader, rng *rand.Rand) (*Corpus, error) {
	var f corpusFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode word data: %w", err)
	}
	seen := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		if c.ID == "" {
			return nil, fmt.Errorf("category %q has no id", c.Name)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate category id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return NewCorpus(f.Categories, rng), nil
}

// Default returns the corpus built from the embedded word data.
func Default(rng *rand.Rand) *Corpus {
	c, err := Parse(bytes.NewReader(defaultWordData), rng)
	if err != nil {
		// Embedded data is validated by tests.
		panic(err)
	}
	return c
}

// LoadFile reads word data from path. When path is empty the embedded data is
// used. A file that cannot be read or parsed yields an empty corpus, so no
// game can start until the data is fixed.
func LoadFile(path string, rng *rand.Rand) *Corpus {
	if path == "" {
		return Default(rng)
	}
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("word data not readable; corpus is empty", "tag", "words", "path", path, "err", err)
		return NewCorpus(nil, rng)
	}
	defer f.Close()
	c, err := Parse(f, rng)
	if err != nil {
		slog.Warn("word data invalid; corpus is empty", "tag", "words", "path", path, "err", err)
		return NewCorpus(nil, rng)
	}
	slog.Info("loaded word data", "tag", "words", "path", path, "categories", len(c.categories))
	return c
}

// Categories returns a copy of the category list in file order.
func (c *Corpus) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// CategoryIDs returns every category id, sorted.
func (c *Corpus) CategoryIDs() []string {
	ids := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		ids = append(ids, cat.ID)
	}
	sort.Strings(ids)
	return ids
}

// Category looks up a category by id.
func (c *Corpus) Category(id string) (Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Words returns the words of one category at one difficulty.
func (c *Corpus) Words(categoryID string, d Difficulty) []string {
	cat, ok := c.Category(categoryID)
	if !ok {
		return nil
	}
	return cat.WordsFor(d)
}

func (c *Corpus) filtered(f Filter) []Category {
	if len(f.CategoryIDs) == 0 {
		return c.categories
	}
	var out []Category
	for _, cat := range c.categories {
		if f.CategoryIDs[cat.ID] {
			out = append(out, cat)
		}
	}
	return out
}

// TotalWordCount returns the size of the pool selected by f.
func (c *Corpus) TotalWordCount(f Filter) int {
	n := 0
	for _, cat := range c.filtered(f) {
		for _, d := range AllDifficulties() {
			if f.Difficulties[d] {
				n += len(cat.Words[d])
			}
		}
	}
	return n
}

// RandomWord draws uniformly from the (word, category) pool selected by f.
// It returns false when the pool is empty.
func (c *Corpus) RandomWord(f Filter) (Pick, bool) {
	var pool []Pick
	for _, cat := range c.filtered(f) {
		for _, d := range AllDifficulties() {
			if !f.Difficulties[d] {
				continue
			}
			for _, w := range cat.Words[d] {
				pool = append(pool, Pick{Word: w, Category: cat})
			}
		}
	}
	if len(pool) == 0 {
		return Pick{}, false
	}
	c.mu.Lock()
	i := c.rng.Intn(len(pool))
	c.mu.Unlock()
	return pool[i], true
}
