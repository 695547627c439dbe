package soilgrids

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/terra/internal/resilience"
	"github.com/sells-group/terra/internal/soil"
)

// Property names in the SoilGrids catalogue.
const (
	propClay = "clay"
	propSand = "sand"
	propSOC  = "soc"
	propPH   = "phh2o"
)

var properties = []string{propClay, propSand, propSOC, propPH}

// queryResponse is the subset of the /properties/query GeoJSON we read.
type queryResponse struct {
	Properties struct {
		Layers []layer `json:"layers"`
	} `json:"properties"`
}

type layer struct {
	Name        string `json:"name"`
	UnitMeasure struct {
		DFactor     float64 `json:"d_factor"`
		MappedUnits string  `json:"mapped_units"`
		TargetUnits string  `json:"target_units"`
	} `json:"unit_measure"`
	Depths []struct {
		Label  string              `json:"label"`
		Values map[string]*float64 `json:"values"`
	} `json:"depths"`
}

func (c *client) queryURL(lat, lng float64) string {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lng, 'f', -1, 64)},
		"depth": {c.depth},
		"value": {"mean"},
	}
	for _, p := range properties {
		params.Add("property", p)
	}
	return c.baseURL + "/properties/query?" + params.Encode()
}

func (c *client) fetch(ctx context.Context, lat, lng float64) (*soil.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(lat, lng), nil)
	if err != nil {
		return nil, eris.Wrap(err, "soilgrids: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "soilgrids: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("soilgrids: returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "soilgrids: read body")
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, eris.Wrap(err, "soilgrids: parse response")
	}

	return c.sampleFrom(qr)
}

// sampleFrom picks the configured depth out of each layer and divides by the
// layer's d_factor: clay/sand g/kg to %, soc dg/kg to g/kg, pH*10 to pH.
func (c *client) sampleFrom(qr queryResponse) (*soil.Sample, error) {
	values := make(map[string]float64, len(properties))
	for _, l := range qr.Properties.Layers {
		for _, d := range l.Depths {
			if d.Label != c.depth {
				continue
			}
			mean := d.Values["mean"]
			if mean == nil {
				continue
			}
			factor := l.UnitMeasure.DFactor
			if factor == 0 {
				factor = 1
			}
			values[l.Name] = *mean / factor
		}
	}

	for _, p := range properties {
		if _, ok := values[p]; !ok {
			zap.L().Debug("soilgrids: property missing", zap.String("property", p), zap.String("depth", c.depth))
			return nil, ErrNoData
		}
	}

	return &soil.Sample{
		Clay:          values[propClay],
		Sand:          values[propSand],
		OrganicCarbon: values[propSOC],
		PH:            values[propPH],
	}, nil
}
