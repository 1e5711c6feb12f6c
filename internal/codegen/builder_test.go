package codegen_test

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"plugin-migrate/internal/codegen"
)

func TestIndentedBuilder(t *testing.T) {
	b := codegen.NewIndentedBuilder()
	b.AppendLine("class C")
	err := b.Block("", func() error {
		b.Append("int x").Append(" = 1;").EndLine()
		b.AppendLine()
		b.AppendLines("a\nb\n")
		return nil
	})
	assert.NoError(t, err)

	assert.Equal(t, "class C\n{\n    int x = 1;\n\n    a\n    b\n}\n", b.String())
	assert.Equal(t, 0, b.Level())
}

func TestIndentationCloseRestoresLevel(t *testing.T) {
	b := codegen.NewIndentedBuilder()
	outer := b.Indent()
	inner := b.Indent()
	assert.Equal(t, 2, b.Level())

	inner.Close()
	assert.Equal(t, 1, b.Level())
	outer.Close()
	assert.Equal(t, 0, b.Level())

	// Closing twice is a no-op.
	inner.Close()
	assert.Equal(t, 0, b.Level())
}

func TestNestRestoresLevelOnError(t *testing.T) {
	b := codegen.NewIndentedBuilder()
	err := b.Block("", func() error {
		return b.Nest(func() error {
			b.AppendLine("deep")
			return errors.New("failed")
		})
	})
	assert.EqualError(t, err, "failed")
	assert.Equal(t, 0, b.Level())
	assert.Equal(t, "{\n        deep\n", b.String())
}

func TestAppendUnindented(t *testing.T) {
	b := codegen.NewIndentedBuilder()
	in := b.Indent()
	b.Append("x();")
	b.AppendUnindented("#pragma warning disable 612")
	b.AppendLine("y();")
	in.Close()

	assert.Equal(t, "    x();\n#pragma warning disable 612\n    y();\n", b.String())
}
