package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rowQuerier is the part of pgxpool.Pool the creator needs.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCreator inserts records into the properties table.
type PostgresCreator struct {
	db    rowQuerier
	pool  *pgxpool.Pool
	table string
}

// NewPostgresCreator connects to dsn and checks the connection.
func NewPostgresCreator(ctx context.Context, dsn string) (*PostgresCreator, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("missing SHODH_PG_DSN")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresCreator{db: pool, pool: pool, table: "properties"}, nil
}

// Close releases the pool.
func (c *PostgresCreator) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

var insertColumns = []string{
	"title", "description", "category", "property_type", "listing_type",
	"price", "city", "locality", "address", "bedrooms", "bathrooms",
	"area_sqft", "furnishing", "amenities", "images", "contact_mobile",
	"owner_id", "status", "details",
}

// insertStatement builds the parameterised INSERT for rec.
func insertStatement(table string, rec PropertyRecord) (string, []any, error) {
	details := []byte("{}")
	if len(rec.Details) > 0 {
		var err error
		details, err = json.Marshal(rec.Details)
		if err != nil {
			return "", nil, fmt.Errorf("marshal details: %w", err)
		}
	}
	placeholders := make([]string, len(insertColumns))
	for i := range insertColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id::text",
		table, strings.Join(insertColumns, ", "), strings.Join(placeholders, ", "))
	args := []any{
		rec.Title, nullable(rec.Description), rec.Category, nullable(rec.PropertyType), rec.ListingType,
		rec.Price, rec.City, nullable(rec.Locality), nullable(rec.Address), nullableInt(rec.Bedrooms), nullableInt(rec.Bathrooms),
		nullableFloat(rec.AreaSqft), nullable(rec.Furnishing), rec.Amenities, rec.Images, rec.ContactMobile,
		nullable(rec.OwnerID), rec.Status, string(details),
	}
	return sql, args, nil
}

func (c *PostgresCreator) Create(ctx context.Context, rec PropertyRecord) (RecordID, error) {
	sql, args, err := insertStatement(c.table, rec)
	if err != nil {
		return "", err
	}
	var id string
	if err := c.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert property: %w", err)
	}
	return RecordID(id), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullableFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}
