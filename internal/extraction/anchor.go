package extraction

// RegionBoundary selects where a transaction region begins relative to its anchor match
type RegionBoundary int

const (
	// RegionAfterAnchor starts the region right after the anchor text
	RegionAfterAnchor RegionBoundary = iota
	// RegionAtAnchor includes the anchor text in the region
	RegionAtAnchor
)

// Anchor marks the start of the transaction section of a document.
// The region always extends to the end of the document.
type Anchor struct {
	production *Production
	boundary   RegionBoundary
}

func NewAnchor(production *Production, boundary RegionBoundary) *Anchor {
	return &Anchor{production: production, boundary: boundary}
}

// Locate returns the transaction region for text, or false when the anchor is absent
func (a *Anchor) Locate(text string) (Span, bool) {
	m, ok := a.production.Find(text)
	if !ok {
		return Span{}, false
	}

	start := m.Span.End
	if a.boundary == RegionAtAnchor {
		start = m.Span.Start
	}
	return Span{Start: start, End: len(text)}, true
}
