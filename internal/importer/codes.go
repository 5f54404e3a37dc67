package importer

// CodeSet tracks the identifying codes consumed by one import run.
type CodeSet struct {
	seen map[Code]struct{}
}

// NewCodeSet returns an empty CodeSet.
func NewCodeSet() *CodeSet {
	return &CodeSet{seen: make(map[Code]struct{})}
}

// Observe marks code as consumed and reports whether it was already seen.
// The empty code never participates and always reports false.
func (s *CodeSet) Observe(code Code) bool {
	if code == "" {
		return false
	}
	if _, ok := s.seen[code]; ok {
		return true
	}
	s.seen[code] = struct{}{}
	return false
}

// Len is the number of distinct codes observed.
func (s *CodeSet) Len() int {
	return len(s.seen)
}
