package deployment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
)

// PostgresSource reads deployment records from a Postgres table with the
// canonical extract columns.
type PostgresSource struct {
	db    *sql.DB
	table string
}

// NewPostgresSource creates a Postgres-backed deployment source.
func NewPostgresSource(db *sql.DB, table string) *PostgresSource {
	if table == "" {
		table = "campaign_deployments"
	}
	return &PostgresSource{db: db, table: table}
}

// OpenPostgres opens a connection pool for the deployment store.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Load fetches deployments inside [start, end] ordered by client and date
// for stable batches across runs.
func (s *PostgresSource) Load(ctx context.Context, start, end time.Time) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT tactic_id, client_id, campaign_id, campaign_name,
		       deployment_date, channel, COALESCE(creative_id,''),
		       COALESCE(segment,''), COALESCE(offer_type,''),
		       COALESCE(response_flag,0), response_date,
		       COALESCE(conversion_flag,0), conversion_date,
		       COALESCE(revenue,0)
		FROM %s
		WHERE deployment_date BETWEEN $1 AND $2
		ORDER BY client_id, deployment_date, tactic_id
	`, s.table), start, end)
	if err != nil {
		return nil, fmt.Errorf("query deployments: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		var responseDate, conversionDate sql.NullTime
		err := rows.Scan(
			&rec.TacticID, &rec.ClientID, &rec.CampaignID, &rec.CampaignName,
			&rec.DeploymentDate, &rec.Channel, &rec.CreativeID,
			&rec.Segment, &rec.OfferType,
			&rec.ResponseFlag, &responseDate,
			&rec.ConversionFlag, &conversionDate,
			&rec.Revenue,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deployment row: %w", err)
		}
		if responseDate.Valid {
			t := responseDate.Time
			rec.ResponseDate = &t
		}
		if conversionDate.Valid {
			t := conversionDate.Time
			rec.ConversionDate = &t
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployment rows: %w", err)
	}
	return records, nil
}
