package deployment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the wire format for all deployment dates.
const DateFormat = "2006-01-02"

// Record is a single contact event ("tactic") sent to a client as part of
// a campaign. Flags are kept as integers to match the upstream extract;
// ResponseDate/ConversionDate are set only when the matching flag is 1.
type Record struct {
	TacticID       string     `json:"tactic_id"`
	ClientID       string     `json:"client_id"`
	CampaignID     string     `json:"campaign_id"`
	CampaignName   string     `json:"campaign_name"`
	DeploymentDate time.Time  `json:"deployment_date"`
	Channel        string     `json:"channel"`
	CreativeID     string     `json:"creative_id"`
	Segment        string     `json:"segment"`
	OfferType      string     `json:"offer_type"`
	ResponseFlag   int        `json:"response_flag"`
	ResponseDate   *time.Time `json:"response_date,omitempty"`
	ConversionFlag int        `json:"conversion_flag"`
	ConversionDate *time.Time `json:"conversion_date,omitempty"`
	Revenue        float64    `json:"revenue"`
}

// canonical column order of the campaign deployments extract
var columns = []string{
	"TACTIC_ID", "CLIENT_ID", "CAMPAIGN_ID", "CAMPAIGN_NAME",
	"DEPLOYMENT_DATE", "CHANNEL", "CREATIVE_ID", "SEGMENT", "OFFER_TYPE",
	"RESPONSE_FLAG", "RESPONSE_DATE", "CONVERSION_FLAG", "CONVERSION_DATE",
	"REVENUE",
}

// MapColumns maps a CSV header to column indexes. Matching is
// case-insensitive and tolerant of surrounding whitespace. Returns -1 for
// columns missing from the header.
func MapColumns(header []string) map[string]int {
	mapping := make(map[string]int, len(columns))
	for _, c := range columns {
		mapping[c] = -1
	}
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, ok := mapping[key]; ok {
			mapping[key] = i
		}
	}
	return mapping
}

// ParseDate parses a deployment-format date in UTC. Empty strings and the
// common warehouse null markers yield a zero time with no error.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || s == `\N` {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseFlag(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse flag %q: %w", s, err)
	}
	return v, nil
}

func parseRevenue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || s == `\N` {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse revenue %q: %w", s, err)
	}
	return v, nil
}

// ParseRow builds a Record from a CSV row using a header mapping from
// MapColumns. Missing columns produce zero values; malformed typed fields
// produce an error naming the field.
func ParseRow(row []string, mapping map[string]int) (*Record, error) {
	get := func(col string) string {
		idx := mapping[col]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	rec := &Record{
		TacticID:     strings.TrimSpace(get("TACTIC_ID")),
		ClientID:     strings.TrimSpace(get("CLIENT_ID")),
		CampaignID:   strings.TrimSpace(get("CAMPAIGN_ID")),
		CampaignName: strings.TrimSpace(get("CAMPAIGN_NAME")),
		Channel:      strings.TrimSpace(get("CHANNEL")),
		CreativeID:   strings.TrimSpace(get("CREATIVE_ID")),
		Segment:      strings.TrimSpace(get("SEGMENT")),
		OfferType:    strings.TrimSpace(get("OFFER_TYPE")),
	}

	var err error
	if rec.DeploymentDate, err = ParseDate(get("DEPLOYMENT_DATE")); err != nil {
		return nil, fmt.Errorf("DEPLOYMENT_DATE: %w", err)
	}
	if rec.ResponseFlag, err = parseFlag(get("RESPONSE_FLAG")); err != nil {
		return nil, fmt.Errorf("RESPONSE_FLAG: %w", err)
	}
	if rec.ConversionFlag, err = parseFlag(get("CONVERSION_FLAG")); err != nil {
		return nil, fmt.Errorf("CONVERSION_FLAG: %w", err)
	}
	if rec.Revenue, err = parseRevenue(get("REVENUE")); err != nil {
		return nil, fmt.Errorf("REVENUE: %w", err)
	}

	if rd, err := ParseDate(get("RESPONSE_DATE")); err == nil && !rd.IsZero() {
		rec.ResponseDate = &rd
	} else if err != nil {
		return nil, fmt.Errorf("RESPONSE_DATE: %w", err)
	}
	if cd, err := ParseDate(get("CONVERSION_DATE")); err == nil && !cd.IsZero() {
		rec.ConversionDate = &cd
	} else if err != nil {
		return nil, fmt.Errorf("CONVERSION_DATE: %w", err)
	}

	return rec, nil
}
