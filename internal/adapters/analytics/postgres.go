package analytics

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/okian/featured/internal/domain/usage"
)

// DefaultPostgresTable is the relational usage table.
const DefaultPostgresTable = "repository_usage"

var sqlIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// The window is computed on UTC calendar dates, like the partition suffixes
// BigQuery filters on.
const postgresUsageSQL = `
SELECT
  repository,
  COUNT(DISTINCT CAST(occurred_at AT TIME ZONE 'UTC' AS DATE)) AS days,
  MAX(stargazers) AS stars,
  MAX(contributors) AS contributors
FROM {{table}}
WHERE
  environment = :environment
  AND CAST(occurred_at AT TIME ZONE 'UTC' AS DATE)
    BETWEEN CAST(NOW() AT TIME ZONE 'UTC' AS DATE) - {{window}}
    AND CAST(NOW() AT TIME ZONE 'UTC' AS DATE)
GROUP BY
  repository
HAVING
  COUNT(DISTINCT CAST(occurred_at AT TIME ZONE 'UTC' AS DATE)) >= {{min_days}}
  AND MAX(stargazers) > :min_stars
ORDER BY
  stars DESC,
  contributors DESC
LIMIT
  :limit`

// PostgresEngine runs the aggregation on a Postgres usage table.
type PostgresEngine struct {
	db  *sqlx.DB
	sql string
}

// NewPostgresEngine opens a pool for dsn. The connection is verified lazily on
// the first query.
func NewPostgresEngine(dsn, table string) (*PostgresEngine, error) {
	sql, err := buildPostgresSQL(table)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresEngine{db: db, sql: sql}, nil
}

// NewPostgresEngineFromDB wraps an existing pool.
func NewPostgresEngineFromDB(db *sqlx.DB, table string) (*PostgresEngine, error) {
	sql, err := buildPostgresSQL(table)
	if err != nil {
		return nil, err
	}
	return &PostgresEngine{db: db, sql: sql}, nil
}

func buildPostgresSQL(table string) (string, error) {
	if table == "" {
		table = DefaultPostgresTable
	}
	if !sqlIdentRe.MatchString(table) {
		return "", fmt.Errorf("invalid usage table %q", table)
	}
	r := strings.NewReplacer(
		"{{table}}", table,
		"{{window}}", fmt.Sprint(usage.WindowDays),
		"{{min_days}}", fmt.Sprint(usage.MinActiveDays),
	)
	return strings.TrimSpace(r.Replace(postgresUsageSQL)), nil
}

func postgresParams(p usage.Params) map[string]any {
	return map[string]any{
		"environment": p.Environment,
		"min_stars":   p.MinStars,
		"limit":       p.Limit,
	}
}

// QueryUsage implements Engine.
func (e *PostgresEngine) QueryUsage(ctx context.Context, p usage.Params) ([]usage.Row, error) {
	const op = "analytics.postgres.query_usage"
	rs, err := e.db.NamedQueryContext(ctx, e.sql, postgresParams(p))
	if err != nil {
		return nil, queryError(op, err)
	}
	defer func() { _ = rs.Close() }()

	var rows []usage.Row
	for rs.Next() {
		var row usage.Row
		if err := rs.StructScan(&row); err != nil {
			return nil, queryError(op, err)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, queryError(op, err)
	}
	return rows, nil
}

// Close releases the pool.
func (e *PostgresEngine) Close() error {
	return e.db.Close()
}
