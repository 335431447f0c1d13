package extract

import (
	"regexp"
	"sort"
)

// sectionPattern names a section and the header synonyms that introduce it.
type sectionPattern struct {
	name    string
	headers []*regexp.Regexp
}

// Header patterns are anchored at line start and tolerate an optional
// trailing colon, so "Weather:", "OBSERVED WEATHER" and "Weather Conditions"
// all open the weather section. The body runs from the end of the header
// match, so same-line content ("Weather: clear skies") stays in the body.
var defaultSections = []sectionPattern{
	{SectionWeather, compileHeaders(
		`(?:observed\s+)?weather(?:\s+conditions)?`,
		`site\s+conditions`,
	)},
	{SectionWorkforce, compileHeaders(
		`workforce`,
		`labou?r(?:\s+on\s+site)?`,
		`manpower`,
		`crews?\s+on\s+site`,
		`personnel`,
	)},
	{SectionWorkAreas, compileHeaders(
		`work\s+areas?`,
		`areas\s+of\s+work`,
		`work\s+locations?`,
	)},
	{SectionNotes, compileHeaders(
		`(?:general\s+|daily\s+)?notes`,
		`remarks`,
		`comments`,
	)},
}

func compileHeaders(alternatives ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(alternatives))
	for _, alt := range alternatives {
		out = append(out, regexp.MustCompile(`(?im)^[ \t]*`+alt+`\b[ \t]*:?`))
	}
	return out
}

// headerMatch is one header occurrence in the source text.
type headerMatch struct {
	name       string
	start, end int
}

// boundaryMatcher splits raw text into section bodies. A section body runs
// from the end of its header match to the start of the earliest following
// header match of any section, or to the end of the text.
type boundaryMatcher struct {
	sections []sectionPattern
}

func newBoundaryMatcher(sections []sectionPattern) *boundaryMatcher {
	return &boundaryMatcher{sections: sections}
}

// matches returns every header occurrence in text, ordered by position.
func (m *boundaryMatcher) matches(text string) []headerMatch {
	var found []headerMatch
	for _, sec := range m.sections {
		for _, re := range sec.headers {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				found = append(found, headerMatch{name: sec.name, start: loc[0], end: loc[1]})
			}
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })
	return found
}

// earliestAfter returns the start of the first header at or after pos, or -1.
func earliestAfter(matches []headerMatch, pos int) int {
	for _, hm := range matches {
		if hm.start >= pos {
			return hm.start
		}
	}
	return -1
}

// sectionBody returns the body of the named section. found is false when no
// header for the section exists in the text.
func (m *boundaryMatcher) sectionBody(text, name string) (body string, found bool) {
	all := m.matches(text)
	for _, hm := range all {
		if hm.name != name {
			continue
		}
		limit := len(text)
		if next := earliestAfter(all, hm.end); next >= 0 {
			limit = next
		}
		return text[hm.end:limit], true
	}
	return "", false
}
