package table

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVNullsAndBOM(t *testing.T) {
	doc := "\ufeffBrand,Date,Count\nHP,2024-01-01,5\nCanon,,\n"
	tbl, err := ReadCSV(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Brand", "Date", "Count"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "HP", tbl.Row(0).Value("Brand"))
	assert.True(t, tbl.Row(1).Get("Date").Null)
	assert.True(t, tbl.Row(1).Get("Count").Null)
}

func TestReadCSVRepeatedHeaderKeepsFirst(t *testing.T) {
	doc := "Brand,Date,Brand,Brand.1,Brand\nHP,2024-01-01,Canon,x,Epson\n"
	tbl, err := ReadCSV(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Brand", "Date", "Brand.2", "Brand.1", "Brand.3"}, tbl.Columns())
	assert.Equal(t, "HP", tbl.Row(0).Value("Brand"))
	assert.Equal(t, "Canon", tbl.Row(0).Value("Brand.2"))

	sel, err := tbl.Select("Brand")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Brand"}, {"HP"}}, sel.Records())
}

func TestNewRepeatedColumnResolvesToFirst(t *testing.T) {
	tbl := FromStrings([]string{"a", "a"}, []string{"1", "2"})
	assert.Equal(t, "1", tbl.Row(0).Value("a"))
}

func TestReadCSVEmptyDocument(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Columns())
}

func TestRequireNamesEveryMissingColumn(t *testing.T) {
	tbl := FromStrings([]string{"a", "b"})
	err := tbl.Require("a", "c", "d")

	var sm *SchemaMismatchError
	require.True(t, errors.As(err, &sm))
	assert.Equal(t, []string{"c", "d"}, sm.Missing)
	assert.Contains(t, err.Error(), `"c"`)
	assert.Contains(t, err.Error(), `"d"`)
}

func TestSelectRenameDoNotMutate(t *testing.T) {
	src := FromStrings([]string{"a", "b", "c"}, []string{"1", "2", "3"})

	sel, err := src.Select("c", "a")
	require.NoError(t, err)
	renamed := sel.Rename(map[string]string{"c": "C"})

	assert.Equal(t, []string{"a", "b", "c"}, src.Columns())
	assert.Equal(t, []string{"c", "a"}, sel.Columns())
	assert.Equal(t, []string{"C", "a"}, renamed.Columns())
	assert.Equal(t, "3", renamed.Row(0).Value("C"))
}

func TestDropDuplicatesIsIdempotent(t *testing.T) {
	src := FromStrings([]string{"a", "b"},
		[]string{"1", "x"},
		[]string{"1", "x"},
		[]string{"1", ""},
		[]string{"1", ""},
		[]string{"2", "x"},
	)
	once := src.DropDuplicates()
	twice := once.DropDuplicates()

	assert.Equal(t, 3, once.Len())
	assert.Equal(t, once.Records(), twice.Records())
}

func TestDropDuplicatesSubsetKeepsFirst(t *testing.T) {
	src := FromStrings([]string{"id", "v"},
		[]string{"1", "first"},
		[]string{"1", "second"},
	)
	out := src.DropDuplicates("id")
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "first", out.Row(0).Value("v"))
}

func TestConcatFillsMissingColumnsWithNull(t *testing.T) {
	a := FromStrings([]string{"name", "type"}, []string{"x", "Printer"})
	b := FromStrings([]string{"name"}, []string{"y"})

	out := Concat(a, b)
	assert.Equal(t, []string{"name", "type"}, out.Columns())
	require.Equal(t, 2, out.Len())
	assert.True(t, out.Row(1).Get("type").Null)
}

func TestSortByColumnNullsLast(t *testing.T) {
	src := FromStrings([]string{"d"}, []string{""}, []string{"2024-01-01"}, []string{"2024-03-01"})

	desc := src.SortByColumn("d", true)
	assert.Equal(t, "2024-03-01", desc.Row(0).Value("d"))
	assert.True(t, desc.Row(2).Get("d").Null)

	asc := src.SortByColumn("d", false)
	assert.Equal(t, "2024-01-01", asc.Row(0).Value("d"))
	assert.True(t, asc.Row(2).Get("d").Null)
}

func TestHeadReverse(t *testing.T) {
	src := FromStrings([]string{"n"}, []string{"1"}, []string{"2"}, []string{"3"})

	assert.Equal(t, 2, src.Head(2).Len())
	assert.Equal(t, 3, src.Head(10).Len())
	assert.Equal(t, "3", src.Reverse().Row(0).Value("n"))
	assert.Equal(t, "1", src.Row(0).Value("n"))
}

func TestWithColumnAndUnique(t *testing.T) {
	src := FromStrings([]string{"brand"}, []string{"HP"}, []string{"Canon"}, []string{"HP"})
	out := src.WithColumn("src", func(Row) Cell { return Str("A") })

	assert.Equal(t, []string{"brand", "src"}, out.Columns())
	assert.Equal(t, "A", out.Row(2).Value("src"))
	assert.Equal(t, []string{"HP", "Canon"}, out.Unique("brand"))
}
