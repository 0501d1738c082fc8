package brokerimport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// This file contains the row and record decoding support shared by the
// CSV source readers.

// sourceFiles lists the input files of a source: the explicit file first (if
// any), then the files discovered in the folder in sort order. That fixed
// enumeration order is what makes the multi-file merge precedence
// deterministic.
func sourceFiles(file, folder, pattern string) ([]string, error) {
	var files []string
	if file != "" {
		files = append(files, file)
	}
	if folder != "" {
		found, err := filepath.Glob(filepath.Join(folder, pattern))
		if err != nil {
			return nil, fmt.Errorf("cannot scan folder %q for %s files: %w", folder, pattern, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// csvTable is a fully read CSV file: a header row and the data rows, with
// enough metadata to report errors pointing at the offending line.
type csvTable struct {
	path    string
	headers []string
	index   map[string]int
	rows    [][]string
}

// readCSVTable reads a whole CSV file into memory. Rows that are entirely
// empty are skipped. The file is opened, fully consumed and closed before
// returning.
func readCSVTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // column counts are validated per format
	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParsingError{Source: path, Message: err.Error()}
	}
	if len(records) == 0 {
		return nil, &ParsingError{Source: path, Message: "file has no header row"}
	}

	t := &csvTable{path: path, headers: records[0], index: make(map[string]int)}
	for i, h := range records[0] {
		t.index[h] = i
	}
	for _, row := range records[1:] {
		if !anyField(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// anyField reports whether the row has at least one non-empty cell.
func anyField(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return true
		}
	}
	return false
}

// require fails with a structural error naming the missing headers, if any.
func (t *csvTable) require(headers ...string) error {
	var missing []string
	for _, h := range headers {
		if _, ok := t.index[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return &ParsingError{
			Source:  t.path,
			Message: fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")),
		}
	}
	return nil
}

// field returns the cell under the named header, or "" when the row is too
// short. Headers are validated with require before any row access.
func (t *csvTable) field(row []string, header string) string {
	i, ok := t.index[header]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// rowContext formats a row position for error reporting. Row i is on line i+2
// of the file (line 1 is the header).
func (t *csvTable) rowContext(i int) string {
	return fmt.Sprintf("line %d", i+2)
}

// parseDecimal converts a broker number to a Decimal, stripping the dollar
// sign and comma thousand separators so as to handle amounts like "$1,250.00".
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}
