package record

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLSource loads the ticket table from a Postgres tickets table kept in row
// order. Schema lives in migrations/.
type SQLSource struct {
	DB *sql.DB
}

const ticketsQuery = `SELECT subject, query_details, reply, additional_comments FROM tickets ORDER BY id`

func (s SQLSource) Load(ctx context.Context) (*Table, error) {
	rows, err := s.DB.QueryContext(ctx, ticketsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tickets: %v", ErrDataUnavailable, err)
	}
	defer rows.Close()

	var tbl Table
	for rows.Next() {
		var subject, details, reply, comments sql.NullString
		if err := rows.Scan(&subject, &details, &reply, &comments); err != nil {
			return nil, fmt.Errorf("%w: scanning tickets row %d: %v", ErrDataUnavailable, len(tbl.Records)+1, err)
		}
		tbl.Records = append(tbl.Records, Record{
			Subject:            subject.String,
			QueryDetails:       details.String,
			Reply:              reply.String,
			AdditionalComments: comments.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading tickets: %v", ErrDataUnavailable, err)
	}
	if len(tbl.Records) == 0 {
		return nil, fmt.Errorf("%w: tickets table is empty", ErrDataUnavailable)
	}
	return &tbl, nil
}
