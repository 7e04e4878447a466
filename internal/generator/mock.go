package generator

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/conorfennell/flashlearn/internal/domain"
)

const MockModel = "mock"

var polishTemplates = []domain.Draft{
	{Question: "doświadczenie", Answer: "experience"},
	{Question: "rozwiązanie", Answer: "solution"},
	{Question: "możliwość", Answer: "possibility, opportunity"},
	{Question: "w międzyczasie", Answer: "in the meantime"},
	{Question: "przeprowadzić", Answer: "to conduct, to carry out"},
	{Question: "zwiększyć", Answer: "to increase"},
	{Question: "zmniejszyć", Answer: "to decrease, to reduce"},
	{Question: "wpływ", Answer: "influence, impact"},
	{Question: "osiągnąć", Answer: "to achieve, to accomplish"},
	{Question: "zastosowanie", Answer: "application, use"},
}

var englishTemplates = []domain.Draft{
	{Question: "nevertheless", Answer: "mimo to, jednak"},
	{Question: "furthermore", Answer: "ponadto, co więcej"},
	{Question: "to accomplish", Answer: "osiągnąć, zrealizować"},
	{Question: "to enhance", Answer: "zwiększyć, ulepszyć"},
	{Question: "essential", Answer: "niezbędny, kluczowy"},
	{Question: "approach", Answer: "podejście, sposób"},
	{Question: "therefore", Answer: "dlatego, zatem"},
	{Question: "significant", Answer: "znaczący, istotny"},
	{Question: "opportunity", Answer: "okazja, możliwość"},
	{Question: "to implement", Answer: "wdrożyć, wprowadzić"},
}

var polishWords = map[string]bool{
	"jest": true, "być": true, "może": true, "można": true,
	"przez": true, "oraz": true, "także": true, "który": true,
}

// Shuffler reorders a slice in place.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// MockGenerator returns vocabulary cards from a fixed list, picking the
// Polish or English list by the language of the text. It costs nothing.
type MockGenerator struct {
	rnd Shuffler
}

func NewMockGenerator(rnd Shuffler) *MockGenerator {
	if rnd == nil {
		rnd = globalShuffler{}
	}
	return &MockGenerator{rnd: rnd}
}

func (m *MockGenerator) ModelID() string { return MockModel }

func (m *MockGenerator) Generate(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	templates := englishTemplates
	if IsPolish(text) {
		templates = polishTemplates
	}
	pool := append([]domain.Draft(nil), templates...)
	m.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	n := SuggestedCount(WordCount(text))
	return &Result{Drafts: pool[:n], Model: MockModel}, nil
}

// IsPolish guesses whether text is Polish from its diacritics and a few
// common words.
func IsPolish(text string) bool {
	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, "ąćęłńóśźż") {
		return true
	}
	for _, w := range strings.Fields(lower) {
		if polishWords[strings.Trim(w, ".,;:!?\"'()")] {
			return true
		}
	}
	return false
}
