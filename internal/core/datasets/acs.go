package datasets

import (
	"github.com/hjones20/os-data/internal/core"
	"github.com/hjones20/os-data/internal/table"
)

func init() {
	registerAcsPopulation()
	registerAcsIncome()
}

// registerAcsPopulation covers ACS 5-year total population estimates.
func registerAcsPopulation() {
	core.Register(core.DatasetDefinition{
		Key:         "acs5_population",
		Group:       "ACS",
		Label:       "Population Estimates",
		Path:        "acs/acs5",
		DefaultYear: "2021",
		GeoKey:      "for",
		DefaultGeo:  "state:*",
		GeoColumn:   "state",
		Variables: []core.VariableSpec{
			{Code: "NAME", Column: "name", Type: table.TypeText},
			{Code: "B01003_001E", Column: "total_population", Type: table.TypeNumeric},
			{Code: "B01002_001E", Column: "median_age", Type: table.TypeNumeric},
		},
	})
}

// registerAcsIncome covers ACS 5-year household income estimates.
func registerAcsIncome() {
	core.Register(core.DatasetDefinition{
		Key:         "acs5_income",
		Group:       "ACS",
		Label:       "Household Income",
		Path:        "acs/acs5",
		DefaultYear: "2021",
		GeoKey:      "for",
		DefaultGeo:  "state:*",
		GeoColumn:   "state",
		Variables: []core.VariableSpec{
			{Code: "NAME", Column: "name", Type: table.TypeText},
			{Code: "B19013_001E", Column: "median_household_income", Type: table.TypeNumeric},
			{Code: "B19025_001E", Column: "aggregate_household_income", Type: table.TypeNumeric},
		},
	})
}
