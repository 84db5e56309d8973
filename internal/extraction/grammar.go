package extraction

import (
	"fmt"
	"regexp"
)

// Span is a half-open byte range [Start, End) within a document
type Span struct {
	Start int
	End   int
}

// Slice returns the text covered by the span
func (s Span) Slice(text string) string {
	return text[s.Start:s.End]
}

// Contains reports whether offset falls inside the span
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Production is a named pattern with an ordered capture-group contract.
// Group names are positional: the i-th name labels the i-th capture group.
type Production struct {
	name   string
	re     *regexp.Regexp
	groups []string
}

// Match is one occurrence of a production
type Match struct {
	Span     Span
	captures map[string]string
	bounds   map[string]Span
}

// Get returns the capture for a contract group name
func (m Match) Get(group string) string {
	return m.captures[group]
}

// GroupSpan returns where a group matched. Unmatched optional groups yield false.
func (m Match) GroupSpan(group string) (Span, bool) {
	span, ok := m.bounds[group]
	return span, ok
}

// NewProduction compiles expr and checks it exposes exactly len(groups) capture groups
func NewProduction(name, expr string, groups ...string) (*Production, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("production %s: %w", name, err)
	}
	if re.NumSubexp() != len(groups) {
		return nil, fmt.Errorf("production %s: pattern has %d capture groups, contract declares %d",
			name, re.NumSubexp(), len(groups))
	}

	return &Production{
		name:   name,
		re:     re,
		groups: append([]string(nil), groups...),
	}, nil
}

// MustProduction is like NewProduction but panics on error. Used for the static rule table.
func MustProduction(name, expr string, groups ...string) *Production {
	p, err := NewProduction(name, expr, groups...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Production) Name() string {
	return p.name
}

// Groups returns the capture-group contract in order
func (p *Production) Groups() []string {
	return append([]string(nil), p.groups...)
}

// Find returns the first match in text
func (p *Production) Find(text string) (Match, bool) {
	loc := p.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return Match{}, false
	}
	return p.newMatch(text, loc), true
}

// FindFrom returns the first match starting at or after offset. Spans stay relative to text.
func (p *Production) FindFrom(text string, offset int) (Match, bool) {
	if offset < 0 || offset > len(text) {
		return Match{}, false
	}
	loc := p.re.FindStringSubmatchIndex(text[offset:])
	if loc == nil {
		return Match{}, false
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += offset
		}
	}
	return p.newMatch(text, loc), true
}

// FindAll returns every non-overlapping match in document order
func (p *Production) FindAll(text string) []Match {
	locs := p.re.FindAllStringSubmatchIndex(text, -1)
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, p.newMatch(text, loc))
	}
	return matches
}

func (p *Production) newMatch(text string, loc []int) Match {
	captures := make(map[string]string, len(p.groups))
	bounds := make(map[string]Span, len(p.groups))
	for i, group := range p.groups {
		start, end := loc[2*(i+1)], loc[2*(i+1)+1]
		if start >= 0 {
			captures[group] = text[start:end]
			bounds[group] = Span{Start: start, End: end}
		}
	}
	return Match{Span: Span{Start: loc[0], End: loc[1]}, captures: captures, bounds: bounds}
}
