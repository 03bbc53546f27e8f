package internal

import (
	"strings"
	"sync"
)

// builderPool recycles the *strings.Builder every statement is rendered
// into. Borrow with GetBuilder, return with PutBuilder, or let Render do
// both.
//
//	sb := internal.GetBuilder()
//	defer internal.PutBuilder(sb)
//	writePredicate(sb, binder, d)
var builderPool = sync.Pool{
	New: func() any { return new(strings.Builder) },
}

// GetBuilder fetches a cleared *strings.Builder.
func GetBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

// PutBuilder returns a Builder to the pool. The caller must not touch it
// afterwards.
func PutBuilder(b *strings.Builder) { builderPool.Put(b) }

// Render runs write against a pooled builder and returns the text. Nothing
// is returned when write fails.
func Render(write func(sb *strings.Builder) error) (string, error) {
	sb := GetBuilder()
	defer PutBuilder(sb)
	if err := write(sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
