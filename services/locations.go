package services

import "strings"

// Region is a named regional cost multiplier.
type Region struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
}

// DefaultRegion is preselected in forms and used by the CLI when no
// location is given.
const DefaultRegion = "Tamil Nadu"

// regions lists the known regional multipliers, grouped south, west, north,
// east, central, then island territories.
var regions = []Region{
	{"Tamil Nadu", 1.00},
	{"Karnataka", 1.05},
	{"Kerala", 1.08},
	{"Andhra Pradesh", 0.98},
	{"Telangana", 1.02},
	{"Puducherry", 1.03},

	{"Maharashtra", 1.10},
	{"Gujarat", 1.07},
	{"Goa", 1.12},
	{"Dadra and Nagar Haveli and Daman and Diu", 1.05},

	{"Delhi", 1.15},
	{"Haryana", 1.08},
	{"Punjab", 1.06},
	{"Himachal Pradesh", 1.10},
	{"Jammu and Kashmir", 1.12},
	{"Ladakh", 1.18},
	{"Chandigarh", 1.12},
	{"Uttarakhand", 1.08},
	{"Uttar Pradesh", 0.95},

	{"West Bengal", 1.00},
	{"Bihar", 0.90},
	{"Jharkhand", 0.92},
	{"Odisha", 0.93},
	{"Sikkim", 1.15},
	{"Assam", 0.95},
	{"Arunachal Pradesh", 1.20},
	{"Nagaland", 1.12},
	{"Manipur", 1.10},
	{"Mizoram", 1.12},
	{"Tripura", 1.05},
	{"Meghalaya", 1.08},
	{"Andaman and Nicobar Islands", 1.25},

	{"Madhya Pradesh", 0.94},
	{"Chhattisgarh", 0.92},
	{"Rajasthan", 0.98},

	{"Lakshadweep", 1.30},
}

// Regions returns a copy of the region table in display order.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// LocationFactor returns the multiplier for a region name. Matching is exact
// after trimming; unknown names get the neutral factor 1.0.
func LocationFactor(name string) (float64, bool) {
	name = strings.TrimSpace(name)
	for _, r := range regions {
		if r.Name == name {
			return r.Factor, true
		}
	}
	return 1.0, false
}

// IsKnownRegion reports whether name is in the region table.
func IsKnownRegion(name string) bool {
	_, ok := LocationFactor(name)
	return ok
}
