// Package zipdb holds the known-ZIP reference set. Entries carry
// coordinates so the offline distance provider can estimate routes
// without an external call.
package zipdb

import "sort"

type Info struct {
	City  string
	State string
	Lat   float64
	Lon   float64
}

var known = map[string]Info{
	"10001": {"New York", "NY", 40.7128, -74.0060},
	"90001": {"Los Angeles", "CA", 34.0522, -118.2437},
	"90021": {"Los Angeles", "CA", 34.0407, -118.2468},
	"60601": {"Chicago", "IL", 41.8781, -87.6298},
	"77001": {"Houston", "TX", 29.7604, -95.3698},
	"77002": {"Houston", "TX", 29.7589, -95.3677},
	"85001": {"Phoenix", "AZ", 33.4484, -112.0740},
	"19103": {"Philadelphia", "PA", 39.9526, -75.1652},
	"78205": {"San Antonio", "TX", 29.4241, -98.4936},
	"78701": {"Austin", "TX", 30.2672, -97.7431},
	"78702": {"Austin", "TX", 30.2586, -97.7242},
	"92101": {"San Diego", "CA", 32.7157, -117.1611},
	"75201": {"Dallas", "TX", 32.7767, -96.7970},
	"95113": {"San Jose", "CA", 37.3382, -121.8863},
	"32202": {"Jacksonville", "FL", 30.3322, -81.6557},
	"76102": {"Fort Worth", "TX", 32.7555, -97.3308},
	"43215": {"Columbus", "OH", 39.9612, -82.9988},
	"28202": {"Charlotte", "NC", 35.2271, -80.8431},
	"94102": {"San Francisco", "CA", 37.7749, -122.4194},
	"46204": {"Indianapolis", "IN", 39.7684, -86.1581},
	"98101": {"Seattle", "WA", 47.6062, -122.3321},
	"80202": {"Denver", "CO", 39.7392, -104.9903},
	"20001": {"Washington", "DC", 38.9072, -77.0369},
	"02108": {"Boston", "MA", 42.3601, -71.0589},
	"79901": {"El Paso", "TX", 31.7619, -106.4850},
	"37219": {"Nashville", "TN", 36.1627, -86.7816},
	"48226": {"Detroit", "MI", 42.3314, -83.0458},
	"73102": {"Oklahoma City", "OK", 35.4676, -97.5164},
	"97201": {"Portland", "OR", 45.5152, -122.6784},
	"89101": {"Las Vegas", "NV", 36.1699, -115.1398},
	"38103": {"Memphis", "TN", 35.1495, -90.0490},
	"40202": {"Louisville", "KY", 38.2527, -85.7585},
	"21201": {"Baltimore", "MD", 39.2904, -76.6122},
	"53202": {"Milwaukee", "WI", 43.0389, -87.9065},
	"07102": {"Newark", "NJ", 40.7357, -74.1724},
	"87102": {"Albuquerque", "NM", 35.0844, -106.6504},
	"85701": {"Tucson", "AZ", 32.2226, -110.9747},
	"93721": {"Fresno", "CA", 36.7378, -119.7871},
	"95814": {"Sacramento", "CA", 38.5816, -121.4944},
	"64106": {"Kansas City", "MO", 39.0997, -94.5786},
	"85201": {"Mesa", "AZ", 33.4152, -111.8315},
	"30303": {"Atlanta", "GA", 33.7490, -84.3880},
	"68102": {"Omaha", "NE", 41.2565, -95.9345},
	"80903": {"Colorado Springs", "CO", 38.8339, -104.8214},
	"27601": {"Raleigh", "NC", 35.7796, -78.6382},
	"90802": {"Long Beach", "CA", 33.7701, -118.1937},
	"23451": {"Virginia Beach", "VA", 36.8529, -75.9780},
	"94612": {"Oakland", "CA", 37.8044, -122.2711},
	"55401": {"Minneapolis", "MN", 44.9778, -93.2650},
	"74103": {"Tulsa", "OK", 36.1540, -95.9928},
	"67202": {"Wichita", "KS", 37.6872, -97.3301},
	"70112": {"New Orleans", "LA", 29.9511, -90.0715},
	"33602": {"Tampa", "FL", 27.9506, -82.4572},
}

func Lookup(zip string) (Info, bool) {
	info, ok := known[zip]
	return info, ok
}

func Known(zip string) bool {
	_, ok := known[zip]
	return ok
}

// All returns the known ZIP codes in sorted order.
func All() []string {
	out := make([]string, 0, len(known))
	for z := range known {
		out = append(out, z)
	}
	sort.Strings(out)
	return out
}
