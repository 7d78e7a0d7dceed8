package providers

import (
	"context"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/platform/obs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const defaultOCMBaseURL = "https://api.openchargemap.io/v3"

type ocmPOI struct {
	ID          *int64 `json:"ID"`
	AddressInfo *struct {
		Title     string   `json:"Title"`
		Latitude  *float64 `json:"Latitude"`
		Longitude *float64 `json:"Longitude"`
	} `json:"AddressInfo"`
	Connections []struct {
		PowerKW *float64 `json:"PowerKW"`
	} `json:"Connections"`
}

// OCMStationProvider implements StationProvider using Open Charge Map.
type OCMStationProvider struct {
	client
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

func NewOCMStationProvider(baseURL, apiKey, userAgent string, session *http.Client, logger *zap.Logger) *OCMStationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOCMBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OCMStationProvider{
		client:  newClient(session, userAgent),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		logger:  logger,
	}
}

func (o *OCMStationProvider) StationsAround(
	ctx context.Context,
	center domain.GeoPoint,
	radiusKm float64,
	maxResults int,
) (_ []domain.ChargeStation, err error) {
	defer obs.Time(ctx, o.logger, "ocm.StationsAround")(&err)

	q := url.Values{}
	q.Set("output", "json")
	q.Set("latitude", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(center.Lng, 'f', -1, 64))
	q.Set("distance", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	q.Set("distanceunit", "KM")
	q.Set("maxresults", strconv.Itoa(maxResults))
	q.Set("compact", "true")
	if o.apiKey != "" {
		q.Set("key", o.apiKey)
	}

	var decoded []ocmPOI
	if err := o.getJSON(ctx, "ocm.StationsAround", o.baseURL+"/poi", q, &decoded); err != nil {
		return nil, err
	}

	out := make([]domain.ChargeStation, 0, len(decoded))
	skipped := 0
	for _, p := range decoded {
		s, ok := toStation(p)
		if !ok {
			skipped++
			continue
		}
		out = append(out, s)
	}

	if skipped > 0 {
		o.logger.Debug("skipped malformed stations",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Int("skipped", skipped),
		)
	}

	return out, nil
}

// toStation validates a raw POI. Entries without an ID or usable coordinates are rejected.
func toStation(p ocmPOI) (domain.ChargeStation, bool) {
	if p.ID == nil || p.AddressInfo == nil || p.AddressInfo.Latitude == nil || p.AddressInfo.Longitude == nil {
		return domain.ChargeStation{}, false
	}

	loc := domain.GeoPoint{Lat: *p.AddressInfo.Latitude, Lng: *p.AddressInfo.Longitude}
	if !loc.Valid() {
		return domain.ChargeStation{}, false
	}

	powers := make([]float64, 0, len(p.Connections))
	for _, c := range p.Connections {
		if c.PowerKW != nil {
			powers = append(powers, *c.PowerKW)
		}
	}

	return domain.NewChargeStation(
		strconv.FormatInt(*p.ID, 10),
		p.AddressInfo.Title,
		loc,
		powers,
	), true
}
