package models

// VisitedSet tracks result-page and product URLs seen during one keyword run.
// It is not safe for concurrent use; a run is strictly sequential.
type VisitedSet struct {
	seen map[string]struct{}
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Add marks url as visited and reports whether it was new.
func (v *VisitedSet) Add(url string) bool {
	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	return true
}

func (v *VisitedSet) Len() int {
	return len(v.seen)
}
