package importer

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ColumnMapping maps logical field names to the column headers a source
// file uses. County exports rarely agree on headers, so each logical field
// carries a list of accepted aliases; a YAML mapping file can extend or
// override the defaults for a one-off export.
type ColumnMapping map[string][]string

// defaultWatchlistMapping covers the header variants seen in assessor and
// CoStar exports.
var defaultWatchlistMapping = ColumnMapping{
	"apn":            {"apn", "parcel number", "parcel_number", "parcel no", "assessor parcel number"},
	"address":        {"address", "property address", "property_address", "situs address", "situs_address", "site address"},
	"city":           {"city", "property city", "situs city", "situs_city"},
	"state":          {"state", "property state", "situs state"},
	"zip":            {"zip", "zip code", "zipcode", "postal code", "property zip"},
	"building_sf":    {"building sf", "building_sf", "rba", "building area", "gross building area"},
	"assessed_total": {"assessed total", "assessed_total", "assessed value", "total assessed value"},
	"listed":         {"listed", "for sale", "is_listed", "listed for sale"},
	"listing_price":  {"listing price", "listing_price", "asking price", "list price"},
}

// defaultLotTractMapping covers assessor roll and subdivision index exports.
var defaultLotTractMapping = ColumnMapping{
	"apn":       {"apn", "parcel number", "parcel_number", "assessor parcel number"},
	"lot":       {"lot", "lot number", "lot_number", "lot no"},
	"tract":     {"tract", "tract number", "tract_number", "tract no"},
	"city":      {"city", "situs city", "situs_city"},
	"legal":     {"legal", "legal description", "legal_description", "legal desc"},
	"latitude":  {"latitude", "lat", "centroid_lat"},
	"longitude": {"longitude", "lng", "lon", "centroid_lng"},
}

// LoadMapping reads a YAML mapping file and merges it over the defaults.
// File entries replace the default alias list for that field.
func LoadMapping(path string, defaults ColumnMapping) (ColumnMapping, error) {
	merged := make(ColumnMapping, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	if path == "" {
		return merged, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: read mapping file %s", path)
	}
	var override ColumnMapping
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, eris.Wrapf(err, "importer: parse mapping file %s", path)
	}
	for k, v := range override {
		merged[strings.ToLower(k)] = v
	}
	return merged, nil
}

// Resolve matches the header row against the mapping and returns logical
// field name to column index. Header comparison is case-insensitive and
// whitespace-trimmed. Fields with no matching header are simply absent.
func (m ColumnMapping) Resolve(headers []string) map[string]int {
	byHeader := make(map[string]int, len(headers))
	for i, h := range headers {
		byHeader[strings.ToLower(strings.TrimSpace(h))] = i
	}

	out := make(map[string]int)
	for field, aliases := range m {
		for _, alias := range aliases {
			if idx, ok := byHeader[strings.ToLower(alias)]; ok {
				out[field] = idx
				break
			}
		}
	}
	return out
}
