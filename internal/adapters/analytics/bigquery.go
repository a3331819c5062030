package analytics

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/okian/featured/internal/domain/usage"
)

// DefaultUsageTable is the wildcard table holding daily usage partitions.
const DefaultUsageTable = "contributors-img.repository_usage.repository_usage_*"

var tableIdentRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+){1,2}\*?$`)

const bigQueryUsageSQL = `
SELECT
  repository,
  COUNT(DISTINCT _date) AS days,
  MAX(stargazers) AS stars,
  MAX(contributors) AS contributors
FROM (
  SELECT
    jsonPayload.repository AS repository,
    DATE(TIMESTAMP_MILLIS(CAST(jsonPayload.timestamp AS INT64))) AS _date,
    CAST(jsonPayload.stargazers AS INT64) AS stargazers,
    CAST(jsonPayload.contributors AS INT64) AS contributors
  FROM
    ` + "`{{table}}`" + `
  WHERE
    labels.environment = @environment
    AND _TABLE_SUFFIX BETWEEN FORMAT_DATE('%Y%m%d', DATE_SUB(CURRENT_DATE(), INTERVAL {{window}} DAY))
    AND FORMAT_DATE('%Y%m%d', CURRENT_DATE()))
GROUP BY
  repository
HAVING
  days >= {{min_days}}
  AND stars > @minStars
ORDER BY
  stars DESC,
  contributors DESC
LIMIT
  @limit`

// rowIterator is the subset of *bigquery.RowIterator the engine reads.
type rowIterator interface {
	Next(dst any) error
}

// queryRunner executes a parameterized query. The production runner wraps a
// *bigquery.Client; tests substitute a fake.
type queryRunner interface {
	Run(ctx context.Context, sql string, params []bigquery.QueryParameter) (rowIterator, error)
}

type clientRunner struct {
	client *bigquery.Client
}

func (r clientRunner) Run(ctx context.Context, sql string, params []bigquery.QueryParameter) (rowIterator, error) {
	q := r.client.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

// BigQueryEngine runs the aggregation on BigQuery.
type BigQueryEngine struct {
	runner queryRunner
	client *bigquery.Client
	sql    string
}

// NewBigQueryEngine builds a client bound to ambient credentials. An empty
// projectID lets the client detect the project from the environment.
func NewBigQueryEngine(ctx context.Context, projectID, table string, opts ...option.ClientOption) (*BigQueryEngine, error) {
	sql, err := buildBigQuerySQL(table)
	if err != nil {
		return nil, err
	}
	if projectID == "" {
		projectID = bigquery.DetectProjectID
	}
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &BigQueryEngine{runner: clientRunner{client: client}, client: client, sql: sql}, nil
}

func newBigQueryEngineWithRunner(runner queryRunner, table string) (*BigQueryEngine, error) {
	sql, err := buildBigQuerySQL(table)
	if err != nil {
		return nil, err
	}
	return &BigQueryEngine{runner: runner, sql: sql}, nil
}

func buildBigQuerySQL(table string) (string, error) {
	if table == "" {
		table = DefaultUsageTable
	}
	if !tableIdentRe.MatchString(table) {
		return "", fmt.Errorf("invalid usage table %q", table)
	}
	r := strings.NewReplacer(
		"{{table}}", table,
		"{{window}}", fmt.Sprint(usage.WindowDays),
		"{{min_days}}", fmt.Sprint(usage.MinActiveDays),
	)
	return strings.TrimSpace(r.Replace(bigQueryUsageSQL)), nil
}

func bigQueryParams(p usage.Params) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "environment", Value: p.Environment},
		{Name: "minStars", Value: p.MinStars},
		{Name: "limit", Value: p.Limit},
	}
}

// QueryUsage implements Engine.
func (e *BigQueryEngine) QueryUsage(ctx context.Context, p usage.Params) ([]usage.Row, error) {
	const op = "analytics.bigquery.query_usage"
	it, err := e.runner.Run(ctx, e.sql, bigQueryParams(p))
	if err != nil {
		return nil, queryError(op, err)
	}

	var rows []usage.Row
	for {
		var row usage.Row
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, queryError(op, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Close releases the underlying client.
func (e *BigQueryEngine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
