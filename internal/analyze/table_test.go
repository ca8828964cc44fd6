package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factories-generator/internal/config"
	"factories-generator/internal/diagnostic"
	"factories-generator/internal/symbols"
)

func id(pkgPath, name string) symbols.TypeID {
	return symbols.TypeID{PkgPath: pkgPath, Name: name}
}

func findDecl(t *testing.T, table *Table, pkgPath, name string) symbols.Declaration {
	t.Helper()

	for _, d := range table.Declarations(pkgPath) {
		if d.ID.Name == name {
			return d
		}
	}

	require.Failf(t, "declaration not discovered", "%s.%s", pkgPath, name)

	return symbols.Declaration{}
}

func names(decls []symbols.Declaration) []string {
	out := make([]string, 0, len(decls))
	for _, d := range decls {
		out = append(out, d.ID.Name)
	}

	return out
}

func TestTable_Discovery(t *testing.T) {
	_, table, diags := loadCatalog(t)

	assert.Equal(t, []string{"JSON", "YAML", "Gob"}, names(table.Declarations(codecPath)))
	assert.Equal(t, []string{"Metrics", "Logging", "Warmup", "Console", "Noop", "Dangling", "Looping"},
		names(table.Declarations(startersPath)))
	assert.Empty(t, table.Declarations(spiPath), "annotation types are not declarations")

	assert.Equal(t, []symbols.TypeID{
		id(spiPath, "AOTContribution"),
		id(spiPath, "AutoConfiguration"),
		id(startersPath, "CoreConfiguration"),
		id(startersPath, "Ping"),
		id(startersPath, "Pong"),
	}, table.Annotations())

	snapshot := diags.Snapshot()
	require.Equal(t, 1, snapshot.Count(diagnostic.CodeInvalidDirective))
	assert.Equal(t, startersPath+".Broken", snapshot.Infos[0].Subject)

	json := findDecl(t, table, codecPath, "JSON")
	assert.Equal(t, codecPath+".JSON", table.CanonicalName(json))
	assert.Contains(t, json.File, "codec.go")
	assert.Positive(t, json.Pos.Line)
}

func TestTable_Supertypes(t *testing.T) {
	_, table, _ := loadCatalog(t)

	codec := id(spiPath, "Codec")

	tests := []struct {
		pkgPath string
		name    string
		want    []symbols.Supertype
	}{
		{codecPath, "JSON", []symbols.Supertype{{ID: codec, Kind: symbols.KindInterface}}},
		{codecPath, "YAML", []symbols.Supertype{
			{ID: codec, Kind: symbols.KindInterface},
			{ID: id(spiPath, "Named"), Kind: symbols.KindInterface},
		}},
		{codecPath, "Gob", []symbols.Supertype{
			{ID: id(spiPath, "Base"), Kind: symbols.KindStruct},
			{ID: codec, Kind: symbols.KindInterface},
		}},
		{startersPath, "Noop", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Supertypes(findDecl(t, table, tt.pkgPath, tt.name))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_Arguments(t *testing.T) {
	_, table, _ := loadCatalog(t)

	starter := id(spiPath, "Starter")

	tests := []struct {
		pkgPath string
		name    string
		want    []symbols.Arguments
	}{
		{codecPath, "JSON", []symbols.Arguments{{}}},
		{codecPath, "YAML", []symbols.Arguments{{Value: id(spiPath, "Codec")}}},
		{codecPath, "Gob", []symbols.Arguments{{AOT: true}}},
		{startersPath, "Metrics", []symbols.Arguments{{Value: starter, Via: id(spiPath, "AutoConfiguration")}}},
		{startersPath, "Logging", []symbols.Arguments{{Value: starter, Via: id(startersPath, "CoreConfiguration")}}},
		{startersPath, "Warmup", []symbols.Arguments{{Value: starter, AOT: true, Via: id(spiPath, "AOTContribution")}}},
		{startersPath, "Looping", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Arguments(findDecl(t, table, tt.pkgPath, tt.name))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_ArgumentErrors(t *testing.T) {
	_, table, _ := loadCatalog(t)

	args, err := table.Arguments(findDecl(t, table, startersPath, "Dangling"))
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Empty(t, args)

	_, err = table.Arguments(symbols.Declaration{ID: id(startersPath, "Broken")})
	assert.ErrorIs(t, err, ErrUnknownDeclaration)
}

func TestTable_ConfiguredAnnotation(t *testing.T) {
	prog, _, _ := loadCatalog(t)

	table := NewTable(prog, TableConfig{
		Annotations: []config.AnnotationDef{
			{Name: "example.com/ext.Component", Value: spiPath + ".Named", AOT: true},
		},
	}, nil, nil)

	ext := id("example.com/ext", "Component")
	require.Contains(t, table.Annotations(), ext)

	found, err := table.expand(table.annotations[ext], make(map[symbols.TypeID]bool))
	require.NoError(t, err)
	assert.Equal(t, []symbols.Arguments{{Value: id(spiPath, "Named"), AOT: true}}, found)
}

func TestTable_UnknownTypeSuggestion(t *testing.T) {
	prog, _, _ := loadCatalog(t)
	starters := findPackage(t, prog, startersPath)

	_, err := prog.resolveRef("spi.Startr", site{pkg: starters, file: starters.Syntax[0]})
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "did you mean Starter?")
}

func TestTable_UnknownPackageSuggestion(t *testing.T) {
	prog, _, _ := loadCatalog(t)
	codec := findPackage(t, prog, codecPath)

	_, err := prog.resolveRef("spii.Codec", site{pkg: codec, file: codec.Syntax[0]})
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "did you mean spi?")
}
