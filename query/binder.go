package query

import "strconv"

// Binder hands out positional placeholders ($1, $2, …) in the order
// literals are rendered. Each Compile call owns its own Binder.
type Binder struct {
	params []any
}

// Bind records v and returns its placeholder.
func (b *Binder) Bind(v any) string {
	b.params = append(b.params, v)
	return "$" + strconv.Itoa(len(b.params))
}

// Len is the number of placeholders issued so far.
func (b *Binder) Len() int { return len(b.params) }

// Params returns the bound literals; Params()[i-1] belongs to $i.
func (b *Binder) Params() []any {
	out := make([]any, len(b.params))
	copy(out, b.params)
	return out
}
