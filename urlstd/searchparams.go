package urlstd

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf16"
)

// Param is one name/value pair of an application/x-www-form-urlencoded
// list.
type Param struct {
	Name  string
	Value string
}

// SearchParams is an ordered list of query parameters. When obtained from
// URL.SearchParams every mutation is written back to the URL's query.
type SearchParams struct {
	list []Param
	url  *URL
}

// ParseSearchParams parses an application/x-www-form-urlencoded string. A
// single leading '?' is ignored.
func ParseSearchParams(init string) *SearchParams {
	return &SearchParams{list: parseURLEncoded(strings.TrimPrefix(init, "?"))}
}

// NewSearchParams returns a list holding a copy of pairs.
func NewSearchParams(pairs ...Param) *SearchParams {
	return &SearchParams{list: slices.Clone(pairs)}
}

func parseURLEncoded(s string) []Param {
	var out []Param
	for seq := range strings.SplitSeq(s, "&") {
		if seq == "" {
			continue
		}
		name, value, _ := strings.Cut(seq, "=")
		out = append(out, Param{
			Name:  decodeFormComponent(name),
			Value: decodeFormComponent(value),
		})
	}
	return out
}

func decodeFormComponent(s string) string {
	return utf8DecodeWithoutBOM(percentDecode(strings.ReplaceAll(s, "+", " ")))
}

func serializeURLEncoded(list []Param) string {
	var b strings.Builder
	for i, p := range list {
		if i > 0 {
			b.WriteByte('&')
		}
		for _, c := range p.Name {
			appendPercentEncoded(&b, c, formURLEncodedSet, true)
		}
		b.WriteByte('=')
		for _, c := range p.Value {
			appendPercentEncoded(&b, c, formURLEncodedSet, true)
		}
	}
	return b.String()
}

// update writes the list back into the owning URL's query.
func (sp *SearchParams) update() {
	if sp.url == nil {
		return
	}
	rec := sp.url.rec
	if q := sp.String(); q != "" {
		rec.Query = Some(q)
	} else {
		rec.Query = Opt[string]{}
		rec.stripTrailingSpacesFromOpaquePath()
	}
}

// Size returns the number of pairs.
func (sp *SearchParams) Size() int { return len(sp.list) }

// Append adds a pair to the end of the list.
func (sp *SearchParams) Append(name, value string) {
	sp.list = append(sp.list, Param{Name: name, Value: value})
	sp.update()
}

// Delete removes every pair named name.
func (sp *SearchParams) Delete(name string) {
	sp.list = slices.DeleteFunc(sp.list, func(p Param) bool { return p.Name == name })
	sp.update()
}

// DeleteValue removes every pair with the given name and value.
func (sp *SearchParams) DeleteValue(name, value string) {
	sp.list = slices.DeleteFunc(sp.list, func(p Param) bool { return p.Name == name && p.Value == value })
	sp.update()
}

// Get returns the value of the first pair named name.
func (sp *SearchParams) Get(name string) (string, bool) {
	for _, p := range sp.list {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// GetAll returns the values of every pair named name, in order.
func (sp *SearchParams) GetAll(name string) []string {
	var out []string
	for _, p := range sp.list {
		if p.Name == name {
			out = append(out, p.Value)
		}
	}
	return out
}

// Has reports whether a pair named name exists.
func (sp *SearchParams) Has(name string) bool {
	_, ok := sp.Get(name)
	return ok
}

// HasValue reports whether a pair with the given name and value exists.
func (sp *SearchParams) HasValue(name, value string) bool {
	return slices.Contains(sp.list, Param{Name: name, Value: value})
}

// Set replaces the first pair named name with value and removes the others,
// or appends a new pair if there is none.
func (sp *SearchParams) Set(name, value string) {
	i := slices.IndexFunc(sp.list, func(p Param) bool { return p.Name == name })
	if i < 0 {
		sp.Append(name, value)
		return
	}
	sp.list[i].Value = value
	tail := slices.DeleteFunc(sp.list[i+1:], func(p Param) bool { return p.Name == name })
	sp.list = sp.list[:i+1+len(tail)]
	sp.update()
}

// Sort orders the pairs by name, comparing UTF-16 code units. Pairs with
// equal names keep their relative order.
func (sp *SearchParams) Sort() {
	keys := make(map[string][]uint16, len(sp.list))
	for _, p := range sp.list {
		if _, ok := keys[p.Name]; !ok {
			keys[p.Name] = utf16.Encode([]rune(p.Name))
		}
	}
	slices.SortStableFunc(sp.list, func(a, b Param) int {
		return slices.Compare(keys[a.Name], keys[b.Name])
	})
	sp.update()
}

// Entries returns a copy of the pairs.
func (sp *SearchParams) Entries() []Param { return slices.Clone(sp.list) }

// All iterates over the pairs in order.
func (sp *SearchParams) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, p := range sp.list {
			if !yield(p.Name, p.Value) {
				return
			}
		}
	}
}

// Keys returns the names of all pairs, in order.
func (sp *SearchParams) Keys() []string {
	out := make([]string, len(sp.list))
	for i, p := range sp.list {
		out[i] = p.Name
	}
	return out
}

// Values returns the values of all pairs, in order.
func (sp *SearchParams) Values() []string {
	out := make([]string, len(sp.list))
	for i, p := range sp.list {
		out[i] = p.Value
	}
	return out
}

// String serializes the list as application/x-www-form-urlencoded.
func (sp *SearchParams) String() string { return serializeURLEncoded(sp.list) }
