package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"logmerge/internal/application"
	"logmerge/internal/domain"
	"logmerge/internal/ports"
)

// Reader parses delimited text logs: first row is the header, every later
// row holds numeric cells. Delimiter and encoding are detected per file.
type Reader struct{}

// Ensure Reader implements FileReader and the cached-header fast path
var (
	_ ports.FileReader         = (*Reader)(nil)
	_ ports.CachedHeaderReader = (*Reader)(nil)
)

// NewReader creates a delimited-text reader.
func NewReader() *Reader {
	return &Reader{}
}

var extensions = map[string]bool{
	".csv": true,
	".txt": true,
	".tsv": true,
	".dat": true,
}

// CanRead reports whether the extension is a delimited-text format.
func (r *Reader) CanRead(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Read parses the file into a DataFile. Undecodable bytes, a short header
// or a non-numeric cell surface as a ParseError; empty cells become NaN.
func (r *Reader) Read(ctx context.Context, path string) (*domain.DataFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &application.ParseError{Path: path, Reason: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, encoding, err := decode(raw)
	if err != nil {
		return nil, &application.ParseError{Path: path, Reason: err.Error()}
	}

	delimiter := detectDelimiter(text)
	records, err := readRecords(path, text, delimiter)
	if err != nil {
		return nil, err
	}

	channels := domain.ParseHeaders(records[0])
	return buildFile(path, delimiter, encoding, channels, domain.DetectTimeColumn(channels), records)
}

// ReadCached parses only the data rows, taking delimiter, encoding and the
// channel descriptor set from a cache entry. The entry must describe this
// exact revision of the file; a column-count mismatch is a ParseError.
func (r *Reader) ReadCached(ctx context.Context, path string, entry *domain.CacheEntry) (*domain.DataFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &application.ParseError{Path: path, Reason: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := decodeAs(raw, entry.Encoding)
	if err != nil {
		return nil, &application.ParseError{Path: path, Reason: err.Error()}
	}

	delimiter := ','
	if entry.Delimiter != "" {
		delimiter = []rune(entry.Delimiter)[0]
	}
	records, err := readRecords(path, text, delimiter)
	if err != nil {
		return nil, err
	}
	if len(records[0]) != len(entry.Channels) {
		return nil, &application.ParseError{
			Path: path, Reason: "cached header does not match the file",
		}
	}

	channels := append([]domain.ChannelDescriptor(nil), entry.Channels...)
	return buildFile(path, delimiter, entry.Encoding, channels, entry.TimeColumnID, records)
}

func readRecords(path, text string, delimiter rune) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &application.ParseError{Path: path, Reason: err.Error()}
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, &application.ParseError{Path: path, Reason: "no header row"}
	}
	return records, nil
}

func buildFile(path string, delimiter rune, encoding string, channels []domain.ChannelDescriptor, timeID string, records [][]string) (*domain.DataFile, error) {
	header := records[0]
	cols := make([][]float64, len(header))
	for rowIdx, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		if len(record) != len(header) {
			return nil, &application.ParseError{
				Path: path, Row: rowIdx + 1,
				Reason: "field count does not match header",
			}
		}
		for i, cell := range record {
			v, err := parseCell(cell)
			if err != nil {
				return nil, &application.ParseError{
					Path: path, Row: rowIdx + 1,
					Reason: "non-numeric cell " + strconv.Quote(cell),
				}
			}
			cols[i] = append(cols[i], v)
		}
	}

	store := domain.NewColumnStore()
	for i, ch := range channels {
		if err := store.Add(ch.ID, cols[i]); err != nil {
			return nil, &application.ParseError{Path: path, Reason: err.Error()}
		}
	}

	return &domain.DataFile{
		Path:         path,
		Name:         filepath.Base(path),
		Delimiter:    delimiter,
		Encoding:     encoding,
		Channels:     channels,
		TimeColumnID: timeID,
		TimeScale:    1,
		Columns:      store,
	}, nil
}

// candidate delimiters in priority order for count ties
var delimiters = []rune{',', '\t', ';', '|'}

// detectDelimiter picks the candidate occurring most often in the header
// line.
func detectDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best := ','
	bestCount := -1
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}

// decode probes the byte order mark, then falls back to UTF-8 and finally
// Latin-1. Invalid UTF-16 payloads are an error, not a silent replacement.
func decode(raw []byte) (text, encoding string, err error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:]), "utf-8", nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return decodeUTF16(raw[2:], false)
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return decodeUTF16(raw[2:], true)
	case utf8.Valid(raw):
		return string(raw), "utf-8", nil
	default:
		return decodeLatin1(raw), "latin-1", nil
	}
}

// decodeAs decodes with a known encoding instead of probing. An unrecognized
// name falls back to the probe.
func decodeAs(raw []byte, encoding string) (string, error) {
	switch encoding {
	case "utf-8":
		return string(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})), nil
	case "utf-16le":
		s, _, err := decodeUTF16(bytes.TrimPrefix(raw, []byte{0xFF, 0xFE}), false)
		return s, err
	case "utf-16be":
		s, _, err := decodeUTF16(bytes.TrimPrefix(raw, []byte{0xFE, 0xFF}), true)
		return s, err
	case "latin-1":
		return decodeLatin1(raw), nil
	default:
		s, _, err := decode(raw)
		return s, err
	}
}

func decodeUTF16(raw []byte, bigEndian bool) (string, string, error) {
	encoding := "utf-16le"
	if bigEndian {
		encoding = "utf-16be"
	}
	if len(raw)%2 != 0 {
		return "", encoding, &truncatedError{encoding}
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		if bigEndian {
			units[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
		} else {
			units[i] = uint16(raw[2*i+1])<<8 | uint16(raw[2*i])
		}
	}
	return string(utf16.Decode(units)), encoding, nil
}

type truncatedError struct {
	encoding string
}

func (e *truncatedError) Error() string {
	return "truncated " + e.encoding + " content"
}

func decodeLatin1(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseCell converts one cell to a float. Empty cells are NaN; a decimal
// comma is accepted when the cell contains no thousands separator.
func parseCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN(), nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	return 0, strconv.ErrSyntax
}
