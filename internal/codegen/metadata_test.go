package codegen_test

import (
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plugin-migrate/internal/schema"
)

const shopSchema = `
context: Shop.Data.ShopContext
tables:
  - name: Users
    shared: true
    columns:
      - {name: Id, type: int, key: true, auto_increment: true}
  - name: Orders
    columns:
      - {name: Id, type: int, key: true, auto_increment: true}
      - {name: UserId, type: int}
      - {name: Note, type: nvarchar, length: 200, nullable: true}
      - {name: PlacedAt, type: datetime2}
    foreign_keys:
      - {columns: [UserId], references: Users}
    indexes:
      - {columns: [UserId]}
`

func TestGenerateMetadata(t *testing.T) {
	m, err := schema.ParseModel(strings.NewReader(shopSchema))
	require.NoError(t, err)

	g := newGenerator(&recordingRenderer{})
	src, err := g.GenerateMetadata("Shop.Migrations", "", "AddOrders", "20240301120000_AddOrders", m)
	require.NoError(t, err)

	header := `// <auto-generated />
using Microsoft.EntityFrameworkCore;
using Microsoft.EntityFrameworkCore.Infrastructure;
using Microsoft.EntityFrameworkCore.Migrations;
using Shop.Data;
using System;

#nullable disable

namespace Shop.Migrations
{
    [DbContext(typeof(ShopContext))]
    [Migration("20240301120000_AddOrders")]
    partial class AddOrders
    {
        /// <inheritdoc />
        protected override void BuildTargetModel(ModelBuilder modelBuilder)
        {
#pragma warning disable 612, 618
            modelBuilder.HasAnnotation("ProductVersion", "1.2.3");

            modelBuilder.Entity("Orders", b =>
                {
                    b.Property<int>("Id")
                        .ValueGeneratedOnAdd()
                        .HasColumnType("int");

                    b.Property<int>("UserId")
                        .HasColumnType("int");

                    b.Property<string>("Note")
                        .HasMaxLength(200)
                        .HasColumnType("nvarchar(200)");

                    b.Property<DateTime>("PlacedAt")
                        .HasColumnType("datetime2");

                    b.HasKey("Id");

                    b.HasIndex("UserId");

                    b.ToTable("Orders");
                });
`
	assert.True(t, strings.HasPrefix(src, header), src)

	assert.Contains(t, src, `                    b.ToTable("Users", t => t.ExcludeFromMigrations());`)
	assert.Contains(t, src, `            modelBuilder.Entity("Orders", b =>
                {
                    b.HasOne("Users", null)
                        .WithMany()
                        .HasForeignKey("UserId")
                        .OnDelete(DeleteBehavior.Cascade)
                        .IsRequired();
                });
#pragma warning restore 612, 618
        }
    }
}
`)
}

func TestGenerateMetadataErrors(t *testing.T) {
	g := newGenerator(&recordingRenderer{})
	m := &schema.Model{}

	_, err := g.GenerateMetadata("N", "", "M", "1_M", m)
	assert.True(t, errors.Is(err, errors.NotValid), "missing context: %v", err)

	_, err = g.GenerateMetadata("N", "Ctx", "M", "", m)
	assert.True(t, errors.Is(err, errors.NotValid), "missing id: %v", err)

	_, err = g.GenerateMetadata("N", "Ctx", "not valid", "1_M", m)
	assert.True(t, errors.Is(err, errors.NotValid), "bad name: %v", err)

	src, err := g.GenerateMetadata("", "Ctx", "M", "1_M", nil)
	require.NoError(t, err)
	assert.Contains(t, src, "[DbContext(typeof(Ctx))]\n[Migration(\"1_M\")]\npartial class M\n")
}
