package providers

import (
	"context"
	"errors"
	"ev-charge-planner/internal/domain"
	"ev-charge-planner/internal/platform/obs"
	"ev-charge-planner/internal/ports"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/twpayne/go-polyline"
	"go.uber.org/zap"
)

const defaultOSRMBaseURL = "https://router.project-osrm.org"

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// OSRMRouteProvider implements RouteProvider using the OSRM HTTP API.
// It performs one request per call; caching and retries live in the services layer.
type OSRMRouteProvider struct {
	client
	baseURL string
	profile string
	logger  *zap.Logger
}

func NewOSRMRouteProvider(baseURL, userAgent string, session *http.Client, logger *zap.Logger) *OSRMRouteProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOSRMBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OSRMRouteProvider{
		client:  newClient(session, userAgent),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: "driving",
		logger:  logger,
	}
}

func (o *OSRMRouteProvider) Route(ctx context.Context, from, to domain.GeoPoint) (_ ports.RouteData, err error) {
	defer obs.Time(ctx, o.logger, "osrm.Route")(&err)

	// OSRM takes lng,lat pairs separated by ';'.
	endpoint := fmt.Sprintf(
		"%s/route/v1/%s/%s,%s;%s,%s",
		o.baseURL, o.profile,
		formatCoord(from.Lng), formatCoord(from.Lat),
		formatCoord(to.Lng), formatCoord(to.Lat),
	)

	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "polyline")
	q.Set("alternatives", "false")

	var decoded osrmResponse
	if err := o.getJSON(ctx, "osrm.Route", endpoint, q, &decoded); err != nil {
		var he *httpStatusError
		// OSRM answers 400 {"code":"NoRoute"} when the points cannot be connected.
		if errors.As(err, &he) && strings.Contains(he.Body, "NoRoute") {
			return ports.RouteData{}, domain.ErrRouteNotFound
		}
		return ports.RouteData{}, err
	}

	if len(decoded.Routes) == 0 {
		return ports.RouteData{}, domain.ErrRouteNotFound
	}

	r := decoded.Routes[0]
	coords, err := DecodePolyline(r.Geometry)
	if err != nil {
		return ports.RouteData{}, domain.NewError(domain.KindUpstreamUnavailable, "osrm.Route", "malformed route geometry", err)
	}

	return ports.RouteData{
		DistanceKm:  r.Distance / 1000,
		DurationMin: r.Duration / 60,
		Geometry:    r.Geometry,
		Coords:      coords,
	}, nil
}

// DecodePolyline decodes a precision-5 encoded polyline into points.
func DecodePolyline(encoded string) ([]domain.GeoPoint, error) {
	raw, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	out := make([]domain.GeoPoint, 0, len(raw))
	for _, c := range raw {
		out = append(out, domain.GeoPoint{Lat: c[0], Lng: c[1]})
	}
	return out, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
