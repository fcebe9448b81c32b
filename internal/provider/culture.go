package provider

import (
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"archive.alpha.io/archive/internal/domain"
	"archive.alpha.io/archive/internal/metrics"
	"archive.alpha.io/archive/internal/pkg/logger"
)

const (
	culturePath          = "/B553457/cultureinfo/area2"
	cultureSuccessCode   = "00"
	cultureDefaultRows   = 1000
	cultureDefaultPageNo = 1
)

// CultureItem is one raw record of the culture info portal (XML).
type CultureItem struct {
	ServiceName *string `xml:"serviceName" json:"serviceName,omitempty"`
	Seq         *string `xml:"seq" json:"seq,omitempty"`
	Title       *string `xml:"title" json:"title,omitempty"`
	StartDate   *string `xml:"startDate" json:"startDate,omitempty"`
	EndDate     *string `xml:"endDate" json:"endDate,omitempty"`
	Place       *string `xml:"place" json:"place,omitempty"`
	RealmName   *string `xml:"realmName" json:"realmName,omitempty"`
	Area        *string `xml:"area" json:"area,omitempty"`
	Sigungu     *string `xml:"sigungu" json:"sigungu,omitempty"`
	Thumbnail   *string `xml:"thumbnail" json:"thumbnail,omitempty"`
	GpsX        *string `xml:"gpsX" json:"gpsX,omitempty"`
	GpsY        *string `xml:"gpsY" json:"gpsY,omitempty"`
}

type cultureEnvelope struct {
	XMLName xml.Name `xml:"response"`
	Header  struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		TotalCount int `xml:"totalCount"`
		PageNo     int `xml:"PageNo"`
		NumOfRows  int `xml:"numOfrows"`
		Items      struct {
			Item []CultureItem `xml:"item"`
		} `xml:"items"`
	} `xml:"body"`
}

// SourceConfig configures one adapter.
type SourceConfig struct {
	Enabled    bool
	ServiceKey string
	Client     ClientConfig
}

// CultureSource fetches the culture info portal's area listing.
type CultureSource struct {
	cfg    SourceConfig
	client *Client
	log    *zap.Logger
}

// NewCultureSource creates the CULTURE_DATA_PORTAL adapter.
func NewCultureSource(cfg SourceConfig) (*CultureSource, error) {
	cfg.Client.Name = domain.SourceCultureDataPortal
	client, err := NewClient(cfg.Client)
	if err != nil {
		return nil, err
	}
	return &CultureSource{
		cfg:    cfg,
		client: client,
		log:    logger.ForSource(domain.SourceCultureDataPortal),
	}, nil
}

func (s *CultureSource) Name() string  { return domain.SourceCultureDataPortal }
func (s *CultureSource) Enabled() bool { return s.cfg.Enabled }

// BreakerState reports the adapter's circuit breaker state.
func (s *CultureSource) BreakerState() string { return s.client.State() }

// Fetch returns one page of culture items as a CultureBatch.
func (s *CultureSource) Fetch(ctx context.Context, params Params) (batch Batch, err error) {
	started := time.Now()
	defer func() {
		n := 0
		if batch != nil {
			n = batch.Len()
		}
		metrics.RecordSourceFetch(s.Name(), time.Since(started), n, err)
	}()

	p := params.withDefaults(cultureDefaultPageNo, cultureDefaultRows)
	q := url.Values{}
	q.Set("serviceKey", s.cfg.ServiceKey)
	q.Set("PageNo", strconv.Itoa(p.PageNo))
	q.Set("numOfrows", strconv.Itoa(p.NumOfRows))
	setIfNotEmpty(q, "from", p.From)
	setIfNotEmpty(q, "to", p.To)
	setIfNotEmpty(q, "serviceTp", p.ServiceTp)
	setIfNotEmpty(q, "sigungu", p.Sigungu)

	body, err := s.client.Get(ctx, culturePath, q)
	if err != nil {
		return nil, newSourceError(s.Name(), OpFetch, err)
	}

	var env cultureEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, newSourceError(s.Name(), OpDecode, err)
	}
	if env.Header.ResultCode != cultureSuccessCode {
		return nil, newSourceError(s.Name(), OpResultCode, &ResultCodeError{
			Code:    env.Header.ResultCode,
			Message: env.Header.ResultMsg,
		})
	}

	items := env.Body.Items.Item
	if items == nil {
		items = []CultureItem{}
	}
	s.log.Info("Fetched culture items",
		zap.Int("items", len(items)),
		zap.Int("total_count", env.Body.TotalCount),
		zap.Int("page_no", p.PageNo),
	)
	return CultureBatch{Items: items}, nil
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
