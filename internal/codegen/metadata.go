package codegen

import (
	"slices"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"plugin-migrate/internal/operation"
	"plugin-migrate/internal/schema"
)

const (
	efNamespace               = "Microsoft.EntityFrameworkCore"
	efInfrastructureNamespace = "Microsoft.EntityFrameworkCore.Infrastructure"
)

var deleteBehaviors = map[string]string{
	"Cascade":  "Cascade",
	"SetNull":  "SetNull",
	"Restrict": "Restrict",
	"NoAction": "NoAction",
	// EF has no SetDefault delete behavior; the database still enforces it.
	"SetDefault": "NoAction",
}

// GenerateMetadata renders the designer half of a migration: the attributes
// binding it to its context and id, and the target model it was built against.
// contextType is the fully qualified data context; when empty the model's
// context is used.
func (g *Generator) GenerateMetadata(namespace, contextType, name, migrationID string, model *schema.Model) (string, error) {
	if err := g.validate(namespace, name); err != nil {
		return "", errors.Trace(err)
	}
	if model == nil {
		model = &schema.Model{}
	}
	if contextType == "" {
		contextType = model.Context
	}
	if contextType == "" {
		return "", errors.NotValidf("empty context type")
	}
	if err := ValidateNamespace(contextType); err != nil {
		return "", errors.Annotate(err, "context type")
	}
	if migrationID == "" {
		return "", errors.NotValidf("empty migration id")
	}

	contextNamespace, contextName := "", contextType
	if i := strings.LastIndex(contextType, "."); i >= 0 {
		contextNamespace, contextName = contextType[:i], contextType[i+1:]
	}

	tables := slices.Clone(model.Tables)
	slices.SortFunc(tables, func(x, y *schema.Table) int { return strings.Compare(x.Name, y.Name) })

	namespaces := []string{efNamespace, efInfrastructureNamespace, migrationsNamespace, contextNamespace}
	for _, t := range tables {
		for _, c := range t.Columns {
			namespaces = append(namespaces, operation.ColumnDefinition{ClrType: c.ClrType}.Imports()...)
		}
	}

	b := NewIndentedBuilder()
	b.AppendLine("// <auto-generated />")
	for _, ns := range SortNamespaces(namespaces) {
		b.AppendLine("using ", ns, ";")
	}
	b.AppendLine()
	b.AppendLine("#nullable disable")
	b.AppendLine()

	body := func() error {
		b.AppendLine("[DbContext(typeof(", contextName, "))]")
		b.AppendLine("[Migration(", Literal(migrationID), ")]")
		b.AppendLine("partial class ", name)
		return b.Block("", func() error {
			b.AppendLine("/// <inheritdoc />")
			b.AppendLine("protected override void BuildTargetModel(ModelBuilder modelBuilder)")
			return b.Block("", func() error {
				b.AppendUnindented("#pragma warning disable 612, 618")
				b.AppendLine("modelBuilder.HasAnnotation(\"ProductVersion\", ", Literal(g.Version), ");")
				for _, t := range tables {
					b.AppendLine()
					writeEntity(b, t)
				}
				for _, t := range tables {
					if len(t.ForeignKeys) == 0 {
						continue
					}
					b.AppendLine()
					writeRelationships(b, t)
				}
				b.AppendUnindented("#pragma warning restore 612, 618")
				return nil
			})
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
	return b.String(), nil
}

// entityBlock writes modelBuilder.Entity("T", b => { ... }); with the lambda
// body indented the way EF lays it out.
func entityBlock(b *IndentedBuilder, table string, fn func()) {
	b.AppendLine("modelBuilder.Entity(", Literal(table), ", b =>")
	lambda := b.Indent()
	defer lambda.Close()

	b.AppendLine("{")
	body := b.Indent()
	fn()
	body.Close()
	b.AppendLine("});")
}

func stringArgs(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Literal(v)
	}
	return strings.Join(parts, ", ")
}

// fluent writes a receiver call followed by chained calls, one per line.
func fluent(b *IndentedBuilder, head string, chain []string) {
	if len(chain) == 0 {
		b.AppendLine(head, ";")
		return
	}
	b.AppendLine(head)
	in := b.Indent()
	for i, call := range chain {
		if i == len(chain)-1 {
			b.AppendLine(call, ";")
		} else {
			b.AppendLine(call)
		}
	}
	in.Close()
}

func writeEntity(b *IndentedBuilder, t *schema.Table) {
	entityBlock(b, t.Name, func() {
		for i, c := range t.Columns {
			if i > 0 {
				b.AppendLine()
			}
			var chain []string
			if c.IsAutoInc {
				chain = append(chain, ".ValueGeneratedOnAdd()")
			}
			if !c.IsNullable && !schema.IsValueType(c.ClrType) {
				chain = append(chain, ".IsRequired()")
			}
			if c.Length > 0 {
				chain = append(chain, ".HasMaxLength("+strconv.Itoa(c.Length)+")")
			}
			chain = append(chain, ".HasColumnType("+Literal(c.StoreType())+")")
			if c.Default != "" {
				chain = append(chain, ".HasDefaultValueSql("+Literal(c.Default)+")")
			}
			if c.Comment != "" {
				chain = append(chain, ".HasComment("+Literal(c.Comment)+")")
			}
			fluent(b, "b.Property<"+c.NullableClrType()+">("+Literal(c.Name)+")", chain)
		}

		if pk := t.PrimaryKey; pk != nil {
			b.AppendLine()
			var chain []string
			if pk.Name != "PK_"+t.Name {
				chain = append(chain, ".HasName("+Literal(pk.Name)+")")
			}
			fluent(b, "b.HasKey("+stringArgs(pk.Columns)+")", chain)
		}

		for _, idx := range t.Indexes {
			b.AppendLine()
			var chain []string
			if idx.Name != "IX_"+t.Name+"_"+strings.Join(idx.Columns, "_") {
				chain = append(chain, ".HasDatabaseName("+Literal(idx.Name)+")")
			}
			if idx.Unique {
				chain = append(chain, ".IsUnique()")
			}
			fluent(b, "b.HasIndex("+stringArgs(idx.Columns)+")", chain)
		}

		b.AppendLine()
		toTable := "b.ToTable(" + Literal(t.Name)
		if t.Schema != "" {
			toTable += ", " + Literal(t.Schema)
		}
		if t.Shared {
			toTable += ", t => t.ExcludeFromMigrations()"
		}
		b.AppendLine(toTable, ");")
	})
}

func writeRelationships(b *IndentedBuilder, t *schema.Table) {
	entityBlock(b, t.Name, func() {
		for i, fk := range t.ForeignKeys {
			if i > 0 {
				b.AppendLine()
			}
			chain := []string{
				".WithMany()",
				".HasForeignKey(" + stringArgs(fk.Columns) + ")",
			}
			if fk.Name != "FK_"+t.Name+"_"+fk.RefTable+"_"+strings.Join(fk.Columns, "_") {
				chain = append(chain, ".HasConstraintName("+Literal(fk.Name)+")")
			}
			behavior, ok := deleteBehaviors[fk.OnDelete]
			if !ok {
				behavior = "NoAction"
			}
			chain = append(chain, ".OnDelete(DeleteBehavior."+behavior+")")
			required := true
			for _, name := range fk.Columns {
				if c := t.Column(name); c != nil && c.IsNullable {
					required = false
				}
			}
			if required {
				chain = append(chain, ".IsRequired()")
			}
			fluent(b, "b.HasOne("+Literal(fk.RefTable)+", null)", chain)
		}
	})
}
