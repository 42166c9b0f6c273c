package csvcodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgrid-labs/relgrid/pkg/core"
	"github.com/relgrid-labs/relgrid/pkg/csvcodec"
)

func TestEncode(t *testing.T) {
	rows := []core.Row{
		{"id": core.Int(1), "name": core.Text("Alice, Inc.")},
		{"id": core.Int(2), "name": core.Null()},
	}

	got := csvcodec.Encode(rows, []string{"id", "name"}, true)
	assert.Equal(t, "id,name\n1,\"Alice, Inc.\"\n2,\n", got)
}

func TestEncodeWithoutHeader(t *testing.T) {
	rows := []core.Row{{"id": core.Int(7)}}
	got := csvcodec.Encode(rows, []string{"id"}, false)
	assert.Equal(t, "7\n", got)
}

func TestEncodeQuoting(t *testing.T) {
	tests := []struct {
		name string
		val  core.Value
		want string
	}{
		{"plain", core.Text("plain"), "plain\n"},
		{"comma", core.Text("a,b"), "\"a,b\"\n"},
		{"quote", core.Text(`say "hi"`), "\"say \"\"hi\"\"\"\n"},
		{"newline", core.Text("line1\nline2"), "\"line1\nline2\"\n"},
		{"null", core.Null(), "\n"},
		{"bool", core.Bool(true), "true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := csvcodec.Encode([]core.Row{{"v": tt.val}}, []string{"v"}, false)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeJSONCell(t *testing.T) {
	v, err := core.JSON(`{"a": 1}`)
	require.NoError(t, err)

	got := csvcodec.Encode([]core.Row{{"meta": v}}, []string{"meta"}, false)
	assert.Equal(t, "\"{\"\"a\"\":1}\"\n", got)
}

func TestDecode(t *testing.T) {
	doc := csvcodec.Decode("id,name\n1,\"Alice, Inc.\"\n2,\n")

	assert.Equal(t, []string{"id", "name"}, doc.Columns)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, map[string]string{"id": "1", "name": "Alice, Inc."}, doc.Rows[0])
	assert.Equal(t, map[string]string{"id": "2", "name": ""}, doc.Rows[1])
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	doc := csvcodec.Decode("\n\nid,name\n\n1,bob\n\n")

	assert.Equal(t, []string{"id", "name"}, doc.Columns)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "bob", doc.Rows[0]["name"])
}

func TestDecodeShortRow(t *testing.T) {
	doc := csvcodec.Decode("id,name,email\n1,bob\n")

	require.Len(t, doc.Rows, 1)
	row := doc.Rows[0]
	assert.Equal(t, "1", row["id"])
	assert.Equal(t, "bob", row["name"])
	_, present := row["email"]
	assert.False(t, present, "short rows leave trailing columns absent")
}

func TestDecodeExtraFieldsDropped(t *testing.T) {
	doc := csvcodec.Decode("id\n1,stray\n")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, map[string]string{"id": "1"}, doc.Rows[0])
}

func TestDecodeCRLF(t *testing.T) {
	doc := csvcodec.Decode("id,name\r\n1,bob\r\n")

	assert.Equal(t, []string{"id", "name"}, doc.Columns)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "bob", doc.Rows[0]["name"])
}

func TestDecodeEscapedQuotes(t *testing.T) {
	doc := csvcodec.Decode("v\n\"say \"\"hi\"\"\"\n")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, `say "hi"`, doc.Rows[0]["v"])
}

func TestDecodeUnterminatedQuote(t *testing.T) {
	// Best effort: the quote runs to end of line, nothing errors.
	doc := csvcodec.Decode("v\n\"oops,still one field\n")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "oops,still one field", doc.Rows[0]["v"])
}

func TestDecodeEmpty(t *testing.T) {
	doc := csvcodec.Decode("")
	assert.Nil(t, doc.Columns)
	assert.Empty(t, doc.Rows)
}

func TestRoundTrip(t *testing.T) {
	meta, err := core.JSON(`{"tags":["a","b"]}`)
	require.NoError(t, err)

	rows := []core.Row{
		{"id": core.Int(1), "name": core.Text(`has "quotes" and,commas`), "meta": meta},
		{"id": core.Int(2), "name": core.Null(), "meta": core.Null()},
	}
	columns := []string{"id", "name", "meta"}

	doc := csvcodec.Decode(csvcodec.Encode(rows, columns, true))

	assert.Equal(t, columns, doc.Columns)
	require.Len(t, doc.Rows, len(rows))
	for i, row := range rows {
		for _, col := range columns {
			assert.Equal(t, row.Get(col).String(), doc.Rows[i][col], "row %d column %s", i, col)
		}
	}
}

func TestEncodeStrings(t *testing.T) {
	got := csvcodec.EncodeStrings([]string{"a", "b"}, [][]string{{"1", "x,y"}})
	assert.Equal(t, "a,b\n1,\"x,y\"\n", got)
}
