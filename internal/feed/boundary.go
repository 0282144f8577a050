package feed

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/rben01/covid19-sub000/internal/models"
)

// Boundaries holds one feature collection per scope ("usa", "world").
// Features carry region codes and display names in their properties.
type Boundaries map[string]*geojson.FeatureCollection

func decodeBoundaries(raw []byte) (Boundaries, error) {
	var scopes map[string]json.RawMessage
	if err := json.Unmarshal(raw, &scopes); err != nil {
		return nil, fmt.Errorf("decode boundary document: %w", err)
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("boundary document has no scopes")
	}

	out := make(Boundaries, len(scopes))
	for scope, msg := range scopes {
		fc, err := geojson.UnmarshalFeatureCollection(msg)
		if err != nil {
			return nil, fmt.Errorf("scope %q: %w", scope, err)
		}
		out[scope] = fc
	}
	return out, nil
}

// Scope returns the boundary collection for a scope, or nil.
func (b Boundaries) Scope(scope string) *geojson.FeatureCollection {
	return b[scope]
}

// ApplyNames copies display names from boundary feature properties onto the
// matching regions. The data feed itself only carries codes.
func ApplyNames(ds *models.Dataset, fc *geojson.FeatureCollection) {
	if ds == nil || fc == nil {
		return
	}
	for _, f := range fc.Features {
		code, _ := f.Properties["code"].(string)
		if code == "" {
			continue
		}
		r, ok := ds.Regions[code]
		if !ok {
			continue
		}
		if name, _ := f.Properties["name"].(string); name != "" {
			r.Name = name
		}
	}
}
