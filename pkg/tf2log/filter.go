package tf2log

// compiledFilter holds include/exclude sets of kinds.
// Exclude takes precedence over include.
type compiledFilter struct {
	include map[Kind]struct{}
	exclude map[Kind]struct{}
}

func newCompiledFilter(include, exclude []Kind) *compiledFilter {
	f := &compiledFilter{}
	if len(include) > 0 {
		f.include = kindSet(include)
	}
	if len(exclude) > 0 {
		f.exclude = kindSet(exclude)
	}
	return f
}

func kindSet(kinds []Kind) map[Kind]struct{} {
	m := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		m[k] = struct{}{}
	}
	return m
}

// Allows reports whether events of kind k pass the filter.
// A nil filter allows everything.
func (f *compiledFilter) Allows(k Kind) bool {
	if f == nil {
		return true
	}
	if _, ok := f.exclude[k]; ok {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	_, ok := f.include[k]
	return ok
}
