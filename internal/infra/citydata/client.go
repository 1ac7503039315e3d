// Package citydata implements the open-data portal adapter over the Socrata
// SODA API. Upstream dataset schemas drift: columns get renamed between
// dataset revisions, and numeric fields arrive as strings. The mappers here
// try each known alias and fall back to defaults; a row only gets dropped
// when it has no usable coordinates.
package citydata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"airscout/config"
	"airscout/internal/domain/entity"
	"airscout/internal/domain/service"
)

// soqlTimeLayout is the Socrata floating timestamp format.
const soqlTimeLayout = "2006-01-02T15:04:05"

// row is one untyped portal record.
type row map[string]any

// Client talks to a Socrata-compatible open-data portal.
type Client struct {
	httpClient *http.Client
	cfg        *config.CityDataConfig
}

// NewClient is the constructor for Client.
func NewClient(cfg *config.CityDataConfig) service.CityDataSource {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// FetchDemolitionPermits retrieves wrecking/demolition permits with valid
// coordinates issued since the given instant.
func (c *Client) FetchDemolitionPermits(ctx context.Context, since time.Time) ([]entity.PermitRecord, error) {
	where := fmt.Sprintf(
		"issue_date >= '%s' AND latitude IS NOT NULL AND longitude IS NOT NULL"+
			" AND (permit_type LIKE '%%WRECKING%%' OR permit_type LIKE '%%DEMOLITION%%')",
		since.UTC().Format(soqlTimeLayout),
	)

	rows, err := c.fetchAll(ctx, c.cfg.Datasets.Permits, url.Values{
		"$where": {where},
		"$order": {"issue_date DESC"},
	})
	if err != nil {
		return nil, err
	}

	permits := make([]entity.PermitRecord, 0, len(rows))
	for _, r := range rows {
		location, ok := pointField(r)
		if !ok {
			continue
		}

		permits = append(permits, entity.PermitRecord{
			PermitNumber:    stringField(r, "permit_", "permit_number", "id"),
			PermitType:      stringField(r, "permit_type"),
			WorkDescription: stringField(r, "work_description"),
			Address:         permitAddress(r),
			Location:        location,
			IssueDate:       timeField(r, "issue_date"),
		})
	}

	return permits, nil
}

// FetchRecentComplaints retrieves geolocated 311 service requests created
// since the given instant.
func (c *Client) FetchRecentComplaints(ctx context.Context, since time.Time) ([]entity.ComplaintRecord, error) {
	where := fmt.Sprintf(
		"created_date >= '%s' AND latitude IS NOT NULL AND longitude IS NOT NULL",
		since.UTC().Format(soqlTimeLayout),
	)

	rows, err := c.fetchAll(ctx, c.cfg.Datasets.Complaints, url.Values{
		"$where": {where},
		"$order": {"created_date DESC"},
	})
	if err != nil {
		return nil, err
	}

	complaints := make([]entity.ComplaintRecord, 0, len(rows))
	for _, r := range rows {
		location, ok := pointField(r)
		if !ok {
			continue
		}

		complaints = append(complaints, entity.ComplaintRecord{
			ServiceRequestID: stringField(r, "sr_number", "service_request_id"),
			Code:             stringField(r, "sr_short_code", "complaint_type"),
			Description:      stringField(r, "sr_type", "complaint_description"),
			Location:         location,
			CreatedAt:        timeField(r, "created_date"),
		})
	}

	return complaints, nil
}

// FetchSchools retrieves the school reference dataset.
func (c *Client) FetchSchools(ctx context.Context) ([]entity.School, error) {
	rows, err := c.fetchAll(ctx, c.cfg.Datasets.Schools, url.Values{})
	if err != nil {
		return nil, err
	}

	schools := make([]entity.School, 0, len(rows))
	for _, r := range rows {
		location, ok := pointField(r)
		if !ok {
			continue
		}

		schools = append(schools, entity.School{
			SchoolID:   stringField(r, "school_id", "schoolid", "id"),
			Name:       stringField(r, "school_nm", "long_name", "school_name"),
			SchoolType: stringField(r, "school_type", "governance", "primary_category"),
			Address:    stringField(r, "address", "street_address", "school_address"),
			Location:   location,
		})
	}

	return schools, nil
}

// FetchTrafficSegments retrieves the latest congestion observation per
// street segment.
func (c *Client) FetchTrafficSegments(ctx context.Context) ([]entity.TrafficSegmentRecord, error) {
	rows, err := c.fetchAll(ctx, c.cfg.Datasets.Traffic, url.Values{
		"$order": {"time DESC"},
	})
	if err != nil {
		return nil, err
	}

	segments := make([]entity.TrafficSegmentRecord, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		location, ok := trafficPoint(r)
		if !ok {
			continue
		}

		segmentID := stringField(r, "segmentid", "segment_id", "_id")
		if segmentID == "" || seen[segmentID] {
			continue
		}
		seen[segmentID] = true

		segments = append(segments, entity.TrafficSegmentRecord{
			SegmentID:  segmentID,
			Street:     stringField(r, "street", "_traffic", "street_name"),
			Direction:  stringField(r, "_direction", "direction"),
			FromStreet: stringField(r, "_fromst", "from_street"),
			ToStreet:   stringField(r, "_tost", "to_street"),
			SpeedMPH:   floatField(r, "current_speed", "speed", "_last_updt_speed"),
			Location:   location,
		})
	}

	return segments, nil
}

// fetchAll pages through a dataset until a short page signals the end.
func (c *Client) fetchAll(ctx context.Context, dataset string, params url.Values) ([]row, error) {
	if dataset == "" {
		return nil, errors.New("dataset id not configured")
	}

	pageSize := c.cfg.PageSize
	if pageSize < 1 {
		pageSize = 1000
	}

	var all []row
	for offset := 0; ; offset += pageSize {
		page, err := c.fetchPage(ctx, dataset, params, pageSize, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, dataset string, params url.Values, limit, offset int) ([]row, error) {
	endpoint := fmt.Sprintf("%s/resource/%s.json", strings.TrimRight(c.cfg.BaseURL, "/"), dataset)

	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("$limit", strconv.Itoa(limit))
	query.Set("$offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build portal request")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.AppToken != "" {
		req.Header.Set("X-App-Token", c.cfg.AppToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "portal request failed for dataset %s", dataset)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, errors.Errorf("portal returned %d for dataset %s: %s",
			resp.StatusCode, dataset, strings.TrimSpace(string(body)))
	}

	var page []row
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, errors.Wrapf(err, "failed to decode portal response for dataset %s", dataset)
	}

	return page, nil
}
