// Package holiday supplies public holiday data for the working-day calendar.
package holiday

import (
	"context"
	"strings"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
)

// Provider returns the holidays of the requested country codes. Codes the
// provider has no data for yield no entry rather than an error.
type Provider interface {
	Holidays(ctx context.Context, codes []string) (calendar.Holidays, error)
}

// Country is a selectable holiday calendar.
type Country struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
}

// Resolve fetches holidays for codes from p. When p fails it degrades to a
// weekend-only calendar: the returned holidays are empty and warn carries a
// CALENDAR_UNAVAILABLE error. The holidays are never nil.
func Resolve(ctx context.Context, p Provider, codes []string) (h calendar.Holidays, warn error) {
	if len(codes) == 0 {
		return calendar.Holidays{}, nil
	}
	h, err := p.Holidays(ctx, codes)
	if err != nil {
		return calendar.Holidays{}, clierr.Newf(clierr.CalendarUnavailable,
			"holiday data unavailable, scheduling with weekends only: %v", err).
			WithDetails(map[string]any{"countries": strings.Join(codes, ",")})
	}
	if h == nil {
		h = calendar.Holidays{}
	}
	return h, nil
}
