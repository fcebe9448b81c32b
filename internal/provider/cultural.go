package provider

import (
	"context"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/metrics"
	"archive.alpha.io/archive/internal/pkg/logger"
)

const (
	culturalPath          = "/openapi/API_CCA_145/request"
	culturalSuccessCode   = "0000"
	culturalDefaultRows   = 9129
	culturalDefaultPageNo = 1
)

// DefaultCulturalCutoff drops events that end on or before this date.
var DefaultCulturalCutoff = time.Date(2025, 12, 31, 0, 0, 0, 0, Seoul)

// CulturalItem is one raw record of the cultural event portal (JSON).
type CulturalItem struct {
	Title                  *string `json:"TITLE,omitempty"`
	ContactInstitutionName *string `json:"CNTC_INSTT_NM,omitempty"`
	CollectedDate          *string `json:"COLLECTED_DATE,omitempty"`
	IssuedDate             *string `json:"ISSUED_DATE,omitempty"`
	Description            *string `json:"DESCRIPTION,omitempty"`
	ImageObject            *string `json:"IMAGE_OBJECT,omitempty"`
	LocalID                *string `json:"LOCAL_ID,omitempty"`
	URL                    *string `json:"URL,omitempty"`
	ViewCount              *string `json:"VIEW_COUNT,omitempty"`
	SubDescription         *string `json:"SUB_DESCRIPTION,omitempty"`
	SpatialCoverage        *string `json:"SPATIAL_COVERAGE,omitempty"`
	EventSite              *string `json:"EVENT_SITE,omitempty"`
	Genre                  *string `json:"GENRE,omitempty"`
	Duration               *string `json:"DURATION,omitempty"`
	NumberPages            *string `json:"NUMBER_PAGES,omitempty"`
	TableOfContents        *string `json:"TABLE_OF_CONTENTS,omitempty"`
	Author                 *string `json:"AUTHOR,omitempty"`
	ContactPoint           *string `json:"CONTACT_POINT,omitempty"`
	Actor                  *string `json:"ACTOR,omitempty"`
	Contributor            *string `json:"CONTRIBUTOR,omitempty"`
	Audience               *string `json:"AUDIENCE,omitempty"`
	Charge                 *string `json:"CHARGE,omitempty"`
	Period                 *string `json:"PERIOD,omitempty"`
	EventPeriod            *string `json:"EVENT_PERIOD,omitempty"`
}

type culturalEnvelope struct {
	Response struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items struct {
				Item []CulturalItem `json:"item"`
			} `json:"items"`
		} `json:"body"`
	} `json:"response"`
}

// CulturalSourceConfig configures the cultural event portal adapter.
type CulturalSourceConfig struct {
	SourceConfig
	// Cutoff drops items whose end date is not strictly after it.
	// Zero means DefaultCulturalCutoff.
	Cutoff time.Time
}

// CulturalSource fetches the cultural event portal listing.
type CulturalSource struct {
	cfg    CulturalSourceConfig
	client *Client
	log    *zap.Logger
}

// NewCulturalSource creates the CULTURAL_DATA_PORTAL adapter.
func NewCulturalSource(cfg CulturalSourceConfig) (*CulturalSource, error) {
	cfg.Client.Name = domain.SourceCulturalDataPortal
	if cfg.Cutoff.IsZero() {
		cfg.Cutoff = DefaultCulturalCutoff
	}
	client, err := NewClient(cfg.Client)
	if err != nil {
		return nil, err
	}
	return &CulturalSource{
		cfg:    cfg,
		client: client,
		log:    logger.ForSource(domain.SourceCulturalDataPortal),
	}, nil
}

func (s *CulturalSource) Name() string  { return domain.SourceCulturalDataPortal }
func (s *CulturalSource) Enabled() bool { return s.cfg.Enabled }

// BreakerState reports the adapter's circuit breaker state.
func (s *CulturalSource) BreakerState() string { return s.client.State() }

// Fetch returns the cutoff-filtered items of one page as a CulturalBatch.
func (s *CulturalSource) Fetch(ctx context.Context, params Params) (batch Batch, err error) {
	started := time.Now()
	defer func() {
		n := 0
		if batch != nil {
			n = batch.Len()
		}
		metrics.RecordSourceFetch(s.Name(), time.Since(started), n, err)
	}()

	p := params.withDefaults(culturalDefaultPageNo, culturalDefaultRows)
	q := url.Values{}
	q.Set("serviceKey", s.cfg.ServiceKey)
	q.Set("pageNo", strconv.Itoa(p.PageNo))
	q.Set("numOfRows", strconv.Itoa(p.NumOfRows))

	body, err := s.client.Get(ctx, culturalPath, q)
	if err != nil {
		return nil, newSourceError(s.Name(), OpFetch, err)
	}

	var env culturalEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newSourceError(s.Name(), OpDecode, err)
	}
	if env.Response.Header.ResultCode != culturalSuccessCode {
		return nil, newSourceError(s.Name(), OpResultCode, &ResultCodeError{
			Code:    env.Response.Header.ResultCode,
			Message: env.Response.Header.ResultMsg,
		})
	}

	all := env.Response.Body.Items.Item
	kept := FilterByCutoff(all, s.cfg.Cutoff)
	s.log.Info("Fetched cultural items",
		zap.Int("items", len(all)),
		zap.Int("kept", len(kept)),
		zap.Time("cutoff", s.cfg.Cutoff),
	)
	return CulturalBatch{Items: kept}, nil
}

// FilterByCutoff keeps items still running after cutoff. The end date is
// taken from PERIOD and EVENT_PERIOD independently; either being strictly
// after cutoff keeps the item. Items with no parseable end date are dropped.
func FilterByCutoff(items []CulturalItem, cutoff time.Time) []CulturalItem {
	kept := make([]CulturalItem, 0, len(items))
	for _, item := range items {
		if endsAfter(item.Period, cutoff) || endsAfter(item.EventPeriod, cutoff) {
			kept = append(kept, item)
		}
	}
	return kept
}

func endsAfter(period *string, cutoff time.Time) bool {
	if period == nil {
		return false
	}
	end := ExtractEndDate(*period)
	return end != nil && end.After(cutoff)
}
