package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		isToday   bool
		cityState string
		want      string
	}{
		{
			name:  "plain",
			query: "golang",
			want:  "https://www.google.com/search?q=golang&ibp=htl;jobs",
		},
		{
			name:  "spaces are escaped",
			query: "software engineer",
			want:  "https://www.google.com/search?q=software+engineer&ibp=htl;jobs",
		},
		{
			name:    "today",
			query:   "golang",
			isToday: true,
			want:    "https://www.google.com/search?q=golang&ibp=htl;jobs#htivrt=jobs&htichips=date_posted:today&htischips=date_posted;today",
		},
		{
			name:      "today and city",
			query:     "golang",
			isToday:   true,
			cityState: "San Francisco, CA",
			want: "https://www.google.com/search?q=golang&ibp=htl;jobs" +
				"#htivrt=jobs&htichips=date_posted:today&htischips=date_posted;today" +
				"&htichips=city;San+Francisco_comma_%20CA",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchURL(tt.query, tt.isToday, tt.cityState)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCityChip_Invalid(t *testing.T) {
	for _, in := range []string{"New York", ",NY", "New York,", "A,B,C"} {
		_, err := CityChip(in)
		assert.ErrorIs(t, err, ErrInvalidCityState, in)
	}
	_, err := SearchURL("golang", false, "Boston")
	assert.ErrorIs(t, err, ErrInvalidCityState)
}
