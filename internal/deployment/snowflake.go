package deployment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// SnowflakeConfig holds warehouse connection settings.
type SnowflakeConfig struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Table     string `yaml:"table"`
}

// SnowflakeSource reads the deployment extract from the warehouse.
type SnowflakeSource struct {
	config SnowflakeConfig
	db     *sql.DB
}

// NewSnowflakeSource opens a Snowflake connection for the deployment store.
func NewSnowflakeSource(cfg SnowflakeConfig) (*SnowflakeSource, error) {
	// DSN format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		cfg.User,
		cfg.Password,
		cfg.Account,
		cfg.Database,
		cfg.Schema,
	)
	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SnowflakeSource{config: cfg, db: db}, nil
}

// Close closes the warehouse connection.
func (s *SnowflakeSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping tests the warehouse connection.
func (s *SnowflakeSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load fetches deployments inside [start, end].
func (s *SnowflakeSource) Load(ctx context.Context, start, end time.Time) ([]*Record, error) {
	table := s.config.Table
	if table == "" {
		table = "VVD_CAMPAIGN_DEPLOYMENTS"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT TACTIC_ID, CLIENT_ID, CAMPAIGN_ID, CAMPAIGN_NAME,
		       DEPLOYMENT_DATE, CHANNEL, COALESCE(CREATIVE_ID,''),
		       COALESCE(SEGMENT,''), COALESCE(OFFER_TYPE,''),
		       COALESCE(RESPONSE_FLAG,0), RESPONSE_DATE,
		       COALESCE(CONVERSION_FLAG,0), CONVERSION_DATE,
		       COALESCE(REVENUE,0)
		FROM %s
		WHERE DEPLOYMENT_DATE BETWEEN ? AND ?
		ORDER BY CLIENT_ID, DEPLOYMENT_DATE, TACTIC_ID
	`, table), start, end)
	if err != nil {
		return nil, fmt.Errorf("query warehouse deployments: %w", err)
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
			return nil, fmt.Errorf("scan warehouse row: %w", err)
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
		return nil, fmt.Errorf("iterate warehouse rows: %w", err)
	}
	return records, nil
}
