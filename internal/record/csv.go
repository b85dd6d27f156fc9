package record

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FileSource loads the ticket table from a local CSV export.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Table, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDataUnavailable, s.Path, err)
	}
	tbl, err := ParseCSV(bytes.NewReader(decodeExport(b)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return tbl, nil
}

// HTTPSource fetches the CSV export over HTTP(S), e.g. from a presigned
// object-store URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Load(ctx context.Context) (*Table, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrDataUnavailable, s.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: status %d", ErrDataUnavailable, s.URL, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDataUnavailable, s.URL, err)
	}
	tbl, err := ParseCSV(bytes.NewReader(decodeExport(b)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.URL, err)
	}
	return tbl, nil
}

// decodeExport normalizes the export bytes to UTF-8. The historical ITSM
// export is Windows-1252 encoded; valid UTF-8 passes through untouched.
func decodeExport(b []byte) []byte {
	if utf8.Valid(b) {
		return b
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return b
	}
	return decoded
}

// ParseCSV reads a ticket table from CSV content. The header row must carry
// all four required columns; extra columns are ignored. Missing cells
// normalize to empty strings.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: table is empty", ErrDataUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrDataUnavailable, err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	required := []string{ColumnQueryDetails, ColumnSubject, ColumnReply, ColumnAdditionalComments}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, missingColumnsError(missing)
	}

	cell := func(row []string, col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var tbl Table
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading row %d: %v", ErrDataUnavailable, len(tbl.Records)+2, err)
		}
		tbl.Records = append(tbl.Records, Record{
			Subject:            cell(row, ColumnSubject),
			QueryDetails:       cell(row, ColumnQueryDetails),
			Reply:              cell(row, ColumnReply),
			AdditionalComments: cell(row, ColumnAdditionalComments),
		})
	}
	if len(tbl.Records) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrDataUnavailable)
	}
	return &tbl, nil
}
