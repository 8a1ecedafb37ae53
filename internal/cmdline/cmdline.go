// Package cmdline builds engine argument vectors from option values.
// Flags use the engine's long form: --key or --key=value.
package cmdline

import (
	"strconv"
	"strings"
)

// Flag formats a flag without a value.
func Flag(key string) string {
	return "--" + key
}

// Value formats a flag with a value.
func Value(key, value string) string {
	return "--" + key + "=" + value
}

// Builder accumulates flags, skipping unset values.
type Builder struct {
	args []string
}

// Bool adds --key when set is true.
func (b *Builder) Bool(key string, set bool) *Builder {
	if set {
		b.args = append(b.args, Flag(key))
	}
	return b
}

// String adds --key=value when value is non-empty.
func (b *Builder) String(key, value string) *Builder {
	if value != "" {
		b.args = append(b.args, Value(key, value))
	}
	return b
}

// Int adds --key=n when n is greater than floor.
func (b *Builder) Int(key string, n, floor int) *Builder {
	if n > floor {
		b.args = append(b.args, Value(key, strconv.Itoa(n)))
	}
	return b
}

// CSV adds --key=a,b,c when values is non-empty.
func (b *Builder) CSV(key string, values []string) *Builder {
	if len(values) > 0 {
		b.args = append(b.args, Value(key, strings.Join(values, ",")))
	}
	return b
}

// Repeat adds --key=v once per value.
func (b *Builder) Repeat(key string, values []string) *Builder {
	for _, v := range values {
		b.args = append(b.args, Value(key, v))
	}
	return b
}

// Raw appends arguments verbatim (positional inputs, "-").
func (b *Builder) Raw(args ...string) *Builder {
	b.args = append(b.args, args...)
	return b
}

// Args returns a copy of the accumulated arguments.
func (b *Builder) Args() []string {
	out := make([]string, len(b.args))
	copy(out, b.args)
	return out
}
