package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/resource-gateway/internal/domain"
)

// tableRowLimit caps how many rows a single read returns.
const tableRowLimit = 100

const columnMetadataQuery = `
        SELECT column_name, data_type
        FROM information_schema.columns
        WHERE table_schema = current_schema() AND table_name = $1
        ORDER BY ordinal_position`

// TableResource exposes a single Postgres table as CSV content.
type TableResource struct {
	pool  *pgxpool.Pool
	table string
	desc  domain.ResourceDescriptor
}

// NewTableResource builds a resource for the named table.
func NewTableResource(pool *pgxpool.Pool, table, description string) *TableResource {
	clean := sanitizeIdentifier(table)
	return &TableResource{
		pool:  pool,
		table: clean,
		desc: domain.ResourceDescriptor{
			Name:        fmt.Sprintf("table: %s", clean),
			URI:         fmt.Sprintf("postgres://tables/%s", clean),
			Description: description,
			MimeType:    "text/csv",
		},
	}
}

// Describe returns the resource descriptor.
func (t *TableResource) Describe() domain.ResourceDescriptor {
	return t.desc
}

// Read serves the table named by the requested URI as CSV: a column-type
// row, a header row, then up to tableRowLimit data rows ordered by the first
// column. The resource is bound to exactly one table; a URI naming any other
// table under the same base is refused so prefix resolution cannot leak
// unrelated rows.
func (t *TableResource) Read(ctx context.Context, uri string) (string, error) {
	requested, ok := tableFromURI(uri)
	if !ok || requested != t.table {
		return "", ErrNotRegistered
	}

	columns, typeInfo, err := t.columnMetadata(ctx)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		// registered, but the table no longer exists in the schema
		return "", ErrNotRegistered
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY 1 LIMIT %d",
		pgx.Identifier{t.table}.Sanitize(), tableRowLimit)

	rows, err := t.pool.Query(ctx, query)
	if err != nil {
		return "", fmt.Errorf("read table %s: %w", t.table, err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return "", err
		}
		record := make([]string, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			record[i] = fmt.Sprint(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	return renderTableCSV(typeInfo, columns, records)
}

func (t *TableResource) columnMetadata(ctx context.Context) ([]string, []string, error) {
	rows, err := t.pool.Query(ctx, columnMetadataQuery, t.table)
	if err != nil {
		return nil, nil, fmt.Errorf("describe table %s: %w", t.table, err)
	}
	defer rows.Close()

	var columns, typeInfo []string
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, nil, err
		}
		columns = append(columns, name)
		typeInfo = append(typeInfo, fmt.Sprintf("%s (%s)", name, dataType))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, typeInfo, nil
}

// renderTableCSV writes the type-info row, the header row, and the data rows.
func renderTableCSV(typeInfo, columns []string, records [][]string) (string, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(typeInfo); err != nil {
		return "", err
	}
	if err := writer.Write(columns); err != nil {
		return "", err
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// tableFromURI extracts the table name from a postgres://tables/<name> URI.
func tableFromURI(uri string) (string, bool) {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme != "postgres" || parsed.Host != "tables" {
		return "", false
	}
	name := strings.Trim(parsed.Path, "/")
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return sanitizeIdentifier(name), true
}

// sanitizeIdentifier strips characters that cannot appear in the table names
// this service exposes, before pgx quoting is applied on top.
func sanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}
