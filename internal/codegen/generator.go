// Package codegen assembles C# migration documents from schema operations.
//
// The generator owns the document structure: usings, directives, namespace,
// class and method scaffolding. Each operation's statement is delegated to a
// Renderer.
package codegen

import (
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"plugin-migrate/internal/operation"
)

var logger = loggo.GetLogger("plugin-migrate.codegen")

const (
	// DefaultTool is the tool name written into the GeneratedCode attribute.
	DefaultTool = "PluginMigrate.Migration"

	migrationsNamespace = "Microsoft.EntityFrameworkCore.Migrations"
	codeDomNamespace    = "System.CodeDom.Compiler"

	multidimensionalPragma = "#pragma warning disable CA1814 // Prefer jagged arrays over multidimensional"
)

// Renderer writes the statement reproducing a single operation against a
// MigrationBuilder named migrationBuilder. The statement may span lines and
// need not terminate its last one.
type Renderer interface {
	Render(b *IndentedBuilder, op operation.Operation) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(b *IndentedBuilder, op operation.Operation) error

func (f RendererFunc) Render(b *IndentedBuilder, op operation.Operation) error {
	return f(b, op)
}

// Generator produces migration and metadata documents. It holds no mutable
// state and may be shared between goroutines.
type Generator struct {
	Renderer Renderer
	// Version is written into generated-code markers and the ProductVersion annotation.
	Version string
	// Tool defaults to DefaultTool.
	Tool string
}

func (g *Generator) tool() string {
	if g.Tool == "" {
		return DefaultTool
	}
	return g.Tool
}

func (g *Generator) validate(namespace, name string) error {
	if err := ValidateIdentifier(name); err != nil {
		return errors.Annotate(err, "migration name")
	}
	if err := ValidateNamespace(namespace); err != nil {
		return errors.Trace(err)
	}
	if g.Version == "" {
		return errors.NotValidf("empty version tag")
	}
	return nil
}

// GenerateMigration renders the migration class for the given up and down
// operations. Nothing is returned unless every operation rendered.
func (g *Generator) GenerateMigration(namespace, name string, up, down []operation.Operation) (string, error) {
	if err := g.validate(namespace, name); err != nil {
		return "", errors.Trace(err)
	}
	if g.Renderer == nil {
		return "", errors.NotValidf("generator without renderer")
	}

	b := NewIndentedBuilder()

	namespaces := []string{migrationsNamespace}
	for _, ops := range [][]operation.Operation{up, down} {
		for _, op := range ops {
			namespaces = append(namespaces, op.Imports()...)
		}
	}
	for _, ns := range SortNamespaces(namespaces) {
		if ns == codeDomNamespace {
			continue
		}
		b.AppendLine("using ", ns, ";")
	}
	b.AppendLine("using ", codeDomNamespace, ";")
	b.AppendLine()

	if operation.HasMultidimensionalData(up, down) {
		b.AppendLine(multidimensionalPragma)
		b.AppendLine()
	}

	body := func() error {
		b.AppendLine("/// <inheritdoc />")
		b.AppendLine("[GeneratedCode(", Literal(g.tool()), ", ", Literal(g.Version), ")]")
		b.AppendLine("public partial class ", name, " : Migration")
		return b.Block("", func() error {
			if err := g.method(b, "Up", up); err != nil {
				return err
			}
			b.AppendLine()
			return g.method(b, "Down", down)
		})
	}

	var err error
	if namespace != "" {
		b.AppendLine("namespace ", namespace)
		err = b.Block("", body)
	} else {
		err = body()
	}
	if err != nil {
		return "", errors.Trace(err)
	}

	logger.Debugf("generated migration %s with %d up and %d down operations", name, len(up), len(down))
	return b.String(), nil
}

func (g *Generator) method(b *IndentedBuilder, method string, ops []operation.Operation) error {
	b.AppendLine("/// <inheritdoc />")
	b.AppendLine("protected override void ", method, "(MigrationBuilder migrationBuilder)")
	return b.Block("", func() error {
		for i, op := range ops {
			if i > 0 {
				b.EndLine()
				b.AppendLine()
			}
			if err := g.Renderer.Render(b, op); err != nil {
				return errors.Annotatef(err, "rendering %s operation %d (%s)", method, i, op.Kind())
			}
		}
		if len(ops) == 0 {
			b.AppendLine()
		} else {
			b.EndLine()
		}
		return nil
	})
}
