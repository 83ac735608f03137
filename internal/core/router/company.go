package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/career-locator/internal/cache/keys"
	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/core/observability"
	"github.com/mohammed-shakir/career-locator/internal/device"
	"github.com/mohammed-shakir/career-locator/internal/geo"
	"github.com/mohammed-shakir/career-locator/internal/locate"
	"github.com/mohammed-shakir/career-locator/internal/locate/iplocate"
	mylog "github.com/mohammed-shakir/career-locator/internal/logger"
	h3mapper "github.com/mohammed-shakir/career-locator/internal/mapper/h3"
	"github.com/mohammed-shakir/career-locator/internal/rank"
	"github.com/mohammed-shakir/career-locator/internal/storesource"
)

const maxLimit = 100

type companyResponse struct {
	Company model.Company `json:"company"`
	Stores  []model.Store `json:"stores"`
	Source  model.Source  `json:"source"`
	Warning string        `json:"warning,omitempty"`
}

// suburl comes from the path, else the request host, else the default.
func (a *api) suburl(r *http.Request) (string, error) {
	sub := keys.NormalizeSuburl(chi.URLParam(r, "suburl"))
	if sub == "" {
		sub = storesource.SuburlFromHost(r.Host, a.Config.DefaultSub)
	}
	if err := a.v.Var(sub, "required,max=63,hostname_rfc1123"); err != nil {
		return "", errors.New("suburl must be a hostname label")
	}
	return sub, nil
}

func (a *api) load(ctx context.Context, sub string) (model.Catalog, string) {
	cat, err := a.Catalog.LoadOrFallback(ctx, sub)
	if err == nil {
		return cat, ""
	}
	if errors.Is(err, storesource.ErrNotFound) {
		return cat, "company_not_found"
	}
	return cat, "career_api_unavailable"
}

func (a *api) company(w http.ResponseWriter, r *http.Request) {
	sub, err := a.suburl(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_suburl", err.Error())
		return
	}
	ctx := mylog.WithCompany(r.Context(), sub)
	cat, warn := a.load(ctx, sub)
	stores := cat.Stores
	if stores == nil {
		stores = []model.Store{}
	}
	writeJSON(w, http.StatusOK, companyResponse{Company: cat.Company, Stores: stores, Source: cat.Source, Warning: warn})
}

type locationError struct {
	Code locate.ErrorKind `json:"code"`
	Hint string           `json:"hint"`
}

type nearbyResponse struct {
	CompanyID       string              `json:"companyId"`
	Reference       model.Coordinate    `json:"reference"`
	ReferenceSource locate.Source       `json:"referenceSource"`
	OutOfRegion     bool                `json:"outOfRegion"`
	Attempts        int                 `json:"attempts"`
	LocationError   *locationError      `json:"locationError,omitempty"`
	Stores          []model.RankedStore `json:"stores"`
	Clusters        []h3mapper.Cluster  `json:"clusters,omitempty"`
	Source          model.Source        `json:"source"`
	Warning         string              `json:"warning,omitempty"`
}

type nearbyQuery struct {
	manual      *model.Coordinate
	limit       int
	withinKm    float64
	keepUnknown bool
	clusterRes  int
}

func (a *api) parseNearby(r *http.Request) (nearbyQuery, error) {
	q := r.URL.Query()
	out := nearbyQuery{keepUnknown: true, clusterRes: -1}

	lat, lng := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lng"))
	switch {
	case lat != "" && lng != "":
		c, err := geo.ParseCoordinate(lat + "," + lng)
		if err != nil {
			return out, err
		}
		out.manual = &c
	case lat != "" || lng != "":
		return out, errors.New("lat and lng must be given together")
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > maxLimit {
			return out, errors.New("limit must be an integer in 0..100")
		}
		out.limit = n
	}
	if s := q.Get("within_km"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !(f > 0) {
			return out, errors.New("within_km must be a positive number")
		}
		out.withinKm = f
	}
	if s := q.Get("keep_unknown"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return out, errors.New("keep_unknown must be a boolean")
		}
		out.keepUnknown = b
	}
	if s := q.Get("cluster_res"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 15 {
			return out, errors.New("cluster_res must be an integer in 0..15")
		}
		out.clusterRes = n
	}
	return out, nil
}

func (a *api) nearby(w http.ResponseWriter, r *http.Request) {
	sub, err := a.suburl(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_suburl", err.Error())
		return
	}
	nq, err := a.parseNearby(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	class := device.FromRequest(r)
	ctx := mylog.WithCompany(r.Context(), sub)
	ctx = mylog.WithDevice(ctx, class.String())

	cat, warn := a.load(ctx, sub)
	resp := nearbyResponse{CompanyID: cat.Company.CompanyID, Source: cat.Source, Warning: warn}

	if nq.manual != nil {
		resp.Reference, resp.ReferenceSource = *nq.manual, locate.SourceManual
	} else {
		res := a.Resolver.Resolve(iplocate.WithClientIP(ctx, a.Proxies.ClientIP(r)), class)
		resp.Reference, resp.ReferenceSource = locate.WithFallback(res, a.Config.Fallback)
		resp.OutOfRegion, resp.Attempts = res.OutOfRegion, res.Attempts
		if !res.OK {
			resp.LocationError = &locationError{Code: res.Kind, Hint: locate.Hint(res.Kind, class)}
		}
	}

	ranked := rank.Rank(resp.Reference, cat.Stores)
	if nq.withinKm > 0 {
		ranked = rank.Within(ranked, nq.withinKm, nq.keepUnknown)
	}
	if nq.limit > 0 && nq.limit < len(ranked) {
		ranked = ranked[:nq.limit]
	}
	withCoords := 0
	for i := range ranked {
		if d := ranked[i].DistanceKm; d != nil {
			v := geo.RoundKm(*d)
			ranked[i].DistanceKm = &v
			withCoords++
		}
	}
	observability.ObserveRanked(withCoords, len(ranked)-withCoords)

	if a.Mapper != nil {
		ranked = a.Mapper.Annotate(ranked)
		parent := nq.clusterRes
		if parent < 0 {
			parent = max(a.Mapper.Resolution()-2, 0)
		}
		clusters, err := a.Mapper.Clusters(ranked, parent)
		if err != nil {
			a.Logger.WarnContext(ctx, "cluster stores failed", "err", err)
		} else {
			resp.Clusters = clusters
		}
	}
	if ranked == nil {
		ranked = []model.RankedStore{}
	}
	resp.Stores = ranked
	writeJSON(w, http.StatusOK, resp)
}
