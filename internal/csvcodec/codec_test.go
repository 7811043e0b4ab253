package csvcodec

import (
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/Tiliavir/rapportini/internal/model"
)

func TestEncodeGolden(t *testing.T) {
	records := []model.Record{
		{ID: "1", Client: "Acme", Date: "2024-01-10", Location: "Rome", Hours: 3.5, Description: "Fix pump", Amount: 120},
		{ID: "2", Client: "Rossi, Bianchi & C.", Date: "2024-02-01", Hours: 2, Description: "Replaced \"valve\"\nchecked lines", Amount: 50.5},
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "encode_mixed", []byte(Encode(records)))
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
	assert.Equal(t, "", Encode([]model.Record{}))
}

func TestEncodeAmountTwoDecimals(t *testing.T) {
	out := Encode([]model.Record{{Client: "Acme", Date: "2024-01-10", Location: "Rome", Hours: 3.5, Description: "Fix pump", Amount: 120}})
	require.True(t, strings.HasPrefix(out, BOM))
	lines := strings.Split(strings.TrimPrefix(out, BOM), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "client,date,location,hours,description,amount", lines[0])
	assert.Equal(t, "Acme,2024-01-10,Rome,3.5,Fix pump,120.00", lines[1])
}

func TestEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"with space", "with space"},
		{"with,comma", `"with,comma"`},
		{`with"quote`, `"with""quote"`},
		{"with\nnewline", "\"with\nnewline\""},
		{"with\rreturn", "with\rreturn"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escape(tt.input), "escape(%q)", tt.input)
	}
}

func TestRoundTrip(t *testing.T) {
	orig := model.Record{Client: "Acme", Date: "2024-01-10", Location: "Rome", Hours: 3.5, Description: "Fix pump", Amount: 120}

	records, n, err := Decode(Encode([]model.Record{orig}))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, orig.Client, got.Client)
	assert.Equal(t, orig.Date, got.Date)
	assert.Equal(t, orig.Location, got.Location)
	assert.Equal(t, orig.Hours, got.Hours)
	assert.Equal(t, orig.Description, got.Description)
	assert.Equal(t, orig.Amount, got.Amount)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRoundTripEmptyOptionalFields(t *testing.T) {
	orig := model.Record{Client: "Acme", Date: "2024-01-10", Hours: 0, Amount: 0}

	records, _, err := Decode(Encode([]model.Record{orig}))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].Location)
	assert.Equal(t, "", records[0].Description)
	assert.Equal(t, 0.0, records[0].Amount)
}

func TestDecodeEmbeddedCommaShiftsColumns(t *testing.T) {
	text := "client,date,location,hours,description,amount\n" +
		`"A,B",2024-02-01,,2,desc,50.00`

	records, n, err := Decode(text)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got := records[0]
	assert.Equal(t, "A", got.Client)
	assert.Equal(t, "B", got.Date)
	assert.Equal(t, "2024-02-01", got.Location)
	assert.True(t, math.IsNaN(got.Hours), "hours = %v, want NaN", got.Hours)
	assert.Equal(t, "2", got.Description)
	assert.True(t, math.IsNaN(got.Amount), "amount = %v, want NaN", got.Amount)
}

func TestDecodeSkipsShortRowsAndBlankLines(t *testing.T) {
	text := "header\n\n" +
		"Acme,2024-01-10,Rome,3.5,Fix pump,120.00\n" +
		"   \n" +
		"too,few,columns\n" +
		"Beta,2024-01-11,,1,,10\r\n"

	records, n, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, records, 2)
	assert.Equal(t, "Acme", records[0].Client)
	assert.Equal(t, "Beta", records[1].Client)
	assert.Equal(t, 10.0, records[1].Amount)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestDecodeStripsSingleQuoteLayer(t *testing.T) {
	text := "h\n" + `"Acme","2024-01-10","Rome","3","say ""hi""","7"`

	records, _, err := Decode(text)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0].Client)
	assert.Equal(t, "2024-01-10", records[0].Date)
	assert.Equal(t, `say ""hi""`, records[0].Description)
	assert.Equal(t, 3.0, records[0].Hours)
	assert.Equal(t, 7.0, records[0].Amount)
}

func TestDecodeMalformed(t *testing.T) {
	for _, text := range []string{"", "\n\n  \n", "client,date,location,hours,description,amount\n"} {
		records, n, err := Decode(text)
		assert.ErrorIs(t, err, ErrMalformedInput, "input %q", text)
		assert.Zero(t, n)
		assert.Empty(t, records)
	}
}

func TestDecodeHeaderWithBOM(t *testing.T) {
	records, n, err := Decode(BOM + "client,date\nAcme,2024-01-10,,1,,2")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Acme", records[0].Client)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"3.5", 3.5},
		{"120.00", 120},
		{" 42", 42},
		{"50.00 EUR", 50},
		{"1.", 1},
		{".5", 0.5},
		{"-2", -2},
		{"1e3", 1000},
		{"5e", 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseNumber(tt.input), "parseNumber(%q)", tt.input)
	}

	for _, bad := range []string{"", "abc", "€10", "-", ".", "NaN", "Infinity", "-Infinity", "+Inf", "1e999", "-1e999"} {
		assert.True(t, math.IsNaN(parseNumber(bad)), "parseNumber(%q) should be NaN", bad)
	}
}

func TestDecodeNonFiniteBecomesNaN(t *testing.T) {
	records, n, err := Decode("h\nAcme,2024-01-10,,Infinity,,1e999\nBeta,2024-01-11,,-Infinity,,+Inf")
	require.NoError(t, err)
	require.Equal(t, 2, n)
	for _, r := range records {
		assert.True(t, math.IsNaN(r.Hours), "hours for %s", r.Client)
		assert.True(t, math.IsNaN(r.Amount), "amount for %s", r.Client)
	}
}

func TestNormalize(t *testing.T) {
	text, err := Normalize([]byte(BOM + "a,b"))
	require.NoError(t, err)
	assert.Equal(t, "a,b", text)

	text, err = Normalize([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String("h\nAcme,2024-01-10,,1,,2")
	require.NoError(t, err)
	text, err = Normalize([]byte(utf16))
	require.NoError(t, err)
	assert.Equal(t, "h\nAcme,2024-01-10,,1,,2", text)
}
