package holiday

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

//go:embed holidays.yml
var embeddedData []byte

type countryData struct {
	Name  string      `yaml:"name"`
	Dates []date.Date `yaml:"dates"`
}

// Embedded serves the holiday data compiled into the binary.
type Embedded struct {
	countries []Country
	holidays  calendar.Holidays
}

// NewEmbedded parses the built-in data set.
func NewEmbedded() (*Embedded, error) {
	var raw map[string]countryData
	if err := yaml.Unmarshal(embeddedData, &raw); err != nil {
		return nil, fmt.Errorf("parsing built-in holidays: %w", err)
	}

	e := &Embedded{holidays: calendar.Holidays{}}
	for code, c := range raw {
		e.countries = append(e.countries, Country{Code: code, Name: c.Name})
		for _, d := range c.Dates {
			e.holidays.Add(code, d)
		}
	}
	sort.Slice(e.countries, func(i, j int) bool { return e.countries[i].Code < e.countries[j].Code })
	return e, nil
}

// Countries lists the codes with built-in data.
func (e *Embedded) Countries() []Country {
	out := make([]Country, len(e.countries))
	copy(out, e.countries)
	return out
}

// Holidays implements Provider.
func (e *Embedded) Holidays(_ context.Context, codes []string) (calendar.Holidays, error) {
	out := calendar.Holidays{}
	for _, code := range codes {
		for d := range e.holidays[code] {
			out.Add(code, d)
		}
	}
	return out, nil
}
