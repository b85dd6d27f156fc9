package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Required column headers of the ticket export. Order matters only for error
// messages; matching is exact after trimming surrounding whitespace.
const (
	ColumnQueryDetails       = "Details of Query"
	ColumnSubject            = "Subject"
	ColumnReply              = "Reply"
	ColumnAdditionalComments = "Additional Comments"
)

// DefaultBlockSize bounds the cost of the exact-match scan.
const DefaultBlockSize = 5

// ErrDataUnavailable is returned when the ticket table cannot be loaded.
// It is fatal at startup; callers must not retry.
var ErrDataUnavailable = errors.New("ticket data unavailable")

// Record is one row of historical support-ticket data. Missing values are
// normalized to empty strings at load time so nulls never reach matching
// logic. Identity is row position; there is no independent primary key.
type Record struct {
	Subject            string
	QueryDetails       string
	Reply              string
	AdditionalComments string
}

// Table is the ordered ticket table loaded once per server start and treated
// as read-only afterwards.
type Table struct {
	Records []Record
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Block is a contiguous fixed-size partition of the table. Start is the row
// index of the first record in the underlying table.
type Block struct {
	Start   int
	Records []Record
}

// Blocks partitions the table into contiguous blocks of at most size records.
// The concatenation of all blocks, in order, reconstructs the table exactly:
// no overlap, no gaps. Purely structural, no filtering.
func (t *Table) Blocks(size int) []Block {
	if size <= 0 {
		size = DefaultBlockSize
	}
	var blocks []Block
	for i := 0; i < t.Len(); i += size {
		end := i + size
		if end > t.Len() {
			end = t.Len()
		}
		blocks = append(blocks, Block{Start: i, Records: t.Records[i:end]})
	}
	return blocks
}

// Source supplies the raw ticket table. Implementations fail with an error
// wrapping ErrDataUnavailable when the source is unreachable, empty, or
// missing required columns.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

func missingColumnsError(missing []string) error {
	return fmt.Errorf("%w: missing required columns: %s", ErrDataUnavailable, strings.Join(missing, ", "))
}
