package providers

import (
	"context"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/platform/obs"
	"ev-charge-planner/internal/ports"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimGeocoder resolves addresses restricted to a single country.
type NominatimGeocoder struct {
	client
	baseURL     string
	countryCode string
	countryName string
	logger      *zap.Logger
}

func NewNominatimGeocoder(baseURL, userAgent, countryCode, countryName string, session *http.Client, logger *zap.Logger) *NominatimGeocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultNominatimBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NominatimGeocoder{
		client:      newClient(session, userAgent),
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: strings.ToLower(strings.TrimSpace(countryCode)),
		countryName: strings.TrimSpace(countryName),
		logger:      logger,
	}
}

func (n *NominatimGeocoder) Geocode(ctx context.Context, query string) (_ ports.GeocodeResult, err error) {
	defer obs.Time(ctx, n.logger, "nominatim.Geocode")(&err)

	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return ports.GeocodeResult{}, domain.Validation("q required")
	}

	text := query
	if n.countryName != "" {
		text = query + ", " + n.countryName
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	if n.countryCode != "" {
		q.Set("countrycodes", n.countryCode)
	}

	var decoded []nominatimResult
	if err := n.getJSON(ctx, "nominatim.Geocode", n.baseURL+"/search", q, &decoded); err != nil {
		return ports.GeocodeResult{}, err
	}

	if len(decoded) == 0 {
		return ports.GeocodeResult{}, domain.NewError(domain.KindNotFound, "nominatim.Geocode", "not found", nil)
	}

	lat, errLat := strconv.ParseFloat(decoded[0].Lat, 64)
	lng, errLng := strconv.ParseFloat(decoded[0].Lon, 64)
	loc := domain.GeoPoint{Lat: lat, Lng: lng}
	if errLat != nil || errLng != nil || !loc.Valid() {
		return ports.GeocodeResult{}, domain.NewError(domain.KindUpstreamUnavailable, "nominatim.Geocode", "malformed upstream response", nil)
	}

	return ports.GeocodeResult{
		Location:    loc,
		DisplayName: decoded[0].DisplayName,
	}, nil
}
