package harvest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	searchURL = "https://www.google.com/search?q=%s&ibp=htl;jobs"
	todayChip = "#htivrt=jobs&htichips=date_posted:today&htischips=date_posted;today"
)

// ErrInvalidCityState is returned for a location not shaped like "City,ST".
var ErrInvalidCityState = errors.New(`city_state must look like "City,ST"`)

// SearchURL builds the jobs-mode results URL for query, optionally
// restricted to today's postings and to one city.
func SearchURL(query string, isToday bool, cityState string) (string, error) {
	u := fmt.Sprintf(searchURL, url.QueryEscape(query))
	if isToday {
		u += todayChip
	}
	if cityState != "" {
		chip, err := CityChip(cityState)
		if err != nil {
			return "", err
		}
		u += chip
	}
	return u, nil
}

// CityChip renders "New York,NY" as "&htichips=city;New+York_comma_%20NY".
func CityChip(cityState string) (string, error) {
	city, state, ok := strings.Cut(cityState, ",")
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if !ok || city == "" || state == "" || strings.Contains(state, ",") {
		return "", fmt.Errorf("%w: %q", ErrInvalidCityState, cityState)
	}
	city = strings.ReplaceAll(city, " ", "+")
	state = strings.ReplaceAll(state, " ", "+")
	return "&htichips=city;" + city + "_comma_%20" + state, nil
}
