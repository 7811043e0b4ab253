// Package csvcodec converts work reports to and from the spreadsheet-friendly
// CSV projection.
//
// Decoding splits on every comma without honouring quotes, so a
// quoted field containing a comma shifts the remaining columns. Encode quotes
// such fields correctly; only text without commas or newlines round-trips.
package csvcodec

import (
	"bytes"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/Tiliavir/rapportini/internal/model"
)

// BOM is prepended to encoded output so spreadsheet tools detect UTF-8.
const BOM = "\uFEFF"

// Header is the first row of every encoded projection.
var Header = []string{"client", "date", "location", "hours", "description", "amount"}

// ErrMalformedInput is returned by Decode when the input has no data rows.
var ErrMalformedInput = errors.New("csv has no data rows")

// Encode renders records as CSV. It returns "" for an empty slice.
func Encode(records []model.Record) string {
	if len(records) == 0 {
		return ""
	}
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, strings.Join(Header, ","))
	for _, r := range records {
		rows = append(rows, strings.Join([]string{
			escape(r.Client),
			escape(r.Date),
			escape(r.Location),
			strconv.FormatFloat(r.Hours, 'f', -1, 64),
			escape(r.Description),
			strconv.FormatFloat(r.Amount, 'f', 2, 64),
		}, ","))
	}
	return BOM + strings.Join(rows, "\n")
}

// escape wraps a field in quotes if it contains a comma, quote, or newline.
func escape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Decode parses CSV text into new records with fresh IDs and timestamps.
// The first non-blank line is treated as a header. Rows with fewer than six
// columns are skipped; numbers that do not parse become NaN. The returned
// count is the number of accepted rows.
func Decode(text string) ([]model.Record, int, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return nil, 0, ErrMalformedInput
	}

	now := time.Now()
	var records []model.Record
	for _, line := range lines[1:] {
		values := strings.Split(strings.TrimSuffix(line, "\r"), ",")
		if len(values) < 6 {
			continue
		}
		records = append(records, model.Record{
			ID:          model.NewID(),
			Client:      unquote(values[0]),
			Date:        unquote(values[1]),
			Location:    unquote(values[2]),
			Hours:       parseNumber(unquote(values[3])),
			Description: unquote(values[4]),
			Amount:      parseNumber(unquote(values[5])),
			CreatedAt:   now,
		})
	}
	return records, len(records), nil
}

// unquote strips one leading and one trailing double quote. Doubled quotes
// inside the field are left as they are.
func unquote(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?)`)

// parseNumber reads the longest numeric prefix of s, ignoring leading
// whitespace, so "50.00 EUR" yields 50. It returns NaN when there is none.
// Values that are not finite ("Infinity", "1e999") also become NaN, since
// the store cannot hold them and would read them back as NaN anyway.
func parseNumber(s string) float64 {
	m := numberPrefix.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// Normalize converts raw upload bytes to text. A UTF-8 or UTF-16 byte order
// mark selects the encoding and is removed; without one the input is read as
// UTF-8.
func Normalize(raw []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(out, []byte(BOM))), nil
}
