package codegen

import (
	"strings"
)

const indentUnit = "    "

// IndentedBuilder accumulates source text, prefixing every non-empty line with
// the current indentation.
type IndentedBuilder struct {
	sb          strings.Builder
	level       int
	atLineStart bool
}

func NewIndentedBuilder() *IndentedBuilder {
	return &IndentedBuilder{atLineStart: true}
}

// Append writes s to the current line.
func (b *IndentedBuilder) Append(s string) *IndentedBuilder {
	if s == "" {
		return b
	}
	if b.atLineStart {
		for i := 0; i < b.level; i++ {
			b.sb.WriteString(indentUnit)
		}
		b.atLineStart = false
	}
	b.sb.WriteString(s)
	return b
}

// AppendLine writes s and terminates the line. Empty lines carry no indentation.
func (b *IndentedBuilder) AppendLine(s ...string) *IndentedBuilder {
	for _, part := range s {
		b.Append(part)
	}
	b.sb.WriteByte('\n')
	b.atLineStart = true
	return b
}

// EndLine terminates the current line unless it is already terminated.
func (b *IndentedBuilder) EndLine() *IndentedBuilder {
	if !b.atLineStart {
		b.AppendLine()
	}
	return b
}

// AppendUnindented writes a whole line at column zero, as preprocessor
// directives are written.
func (b *IndentedBuilder) AppendUnindented(line string) *IndentedBuilder {
	b.EndLine()
	b.sb.WriteString(line)
	b.sb.WriteByte('\n')
	b.atLineStart = true
	return b
}

// AppendLines writes a multi-line value, indenting each of its lines.
func (b *IndentedBuilder) AppendLines(value string) *IndentedBuilder {
	for _, line := range strings.Split(strings.TrimRight(value, "\n"), "\n") {
		b.AppendLine(line)
	}
	return b
}

// Level reports the current indentation level.
func (b *IndentedBuilder) Level() int {
	return b.level
}

// Indentation is the handle returned by Indent.
type Indentation struct {
	b        *IndentedBuilder
	previous int
	closed   bool
}

// Indent increases the indentation until the returned handle is closed.
func (b *IndentedBuilder) Indent() *Indentation {
	in := &Indentation{b: b, previous: b.level}
	b.level++
	return in
}

// Close restores the indentation level captured by Indent. Closing twice is a no-op.
func (in *Indentation) Close() {
	if in.closed {
		return
	}
	in.closed = true
	in.b.level = in.previous
}

// Nest runs fn one level deeper and restores the level whatever fn returns.
func (b *IndentedBuilder) Nest(fn func() error) error {
	in := b.Indent()
	defer in.Close()
	return fn()
}

// Block writes "{", runs fn one level deeper, then writes "}" followed by suffix.
func (b *IndentedBuilder) Block(suffix string, fn func() error) error {
	b.AppendLine("{")
	if err := b.Nest(fn); err != nil {
		return err
	}
	b.AppendLine("}" + suffix)
	return nil
}

func (b *IndentedBuilder) String() string {
	return b.sb.String()
}
