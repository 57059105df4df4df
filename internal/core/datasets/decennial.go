package datasets

import (
	"github.com/hjones20/os-data/internal/core"
	"github.com/hjones20/os-data/internal/table"
)

func init() {
	registerSf1Profile()
	registerSf1Households()
}

// registerSf1Profile covers the 2010 Summary File 1 demographic profile:
// median age and average family size per state. Variable meanings come
// from the SF1 data dictionary, not the API.
func registerSf1Profile() {
	core.Register(core.DatasetDefinition{
		Key:         "dec_sf1_profile",
		Group:       "Decennial",
		Label:       "Demographic Profile",
		Path:        "dec/sf1",
		DefaultYear: "2010",
		GeoKey:      "for",
		DefaultGeo:  "state:*",
		GeoColumn:   "state",
		Variables: []core.VariableSpec{
			{Code: "NAME", Column: "name", Type: table.TypeText},
			{Code: "P013001", Column: "median_age", Type: table.TypeNumeric},
			{Code: "P037001", Column: "avg_family_size", Type: table.TypeNumeric},
		},
	})
}

// registerSf1Households covers household counts and average household size.
func registerSf1Households() {
	core.Register(core.DatasetDefinition{
		Key:         "dec_sf1_households",
		Group:       "Decennial",
		Label:       "Households",
		Path:        "dec/sf1",
		DefaultYear: "2010",
		GeoKey:      "for",
		DefaultGeo:  "state:*",
		GeoColumn:   "state",
		Variables: []core.VariableSpec{
			{Code: "NAME", Column: "name", Type: table.TypeText},
			{Code: "H003001", Column: "housing_units", Type: table.TypeNumeric},
			{Code: "H012001", Column: "avg_household_size", Type: table.TypeNumeric},
		},
	})
}
