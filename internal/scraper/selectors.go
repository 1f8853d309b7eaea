package scraper

// Selectors is the structural contract with the results page. It is passed
// by value so a deployment can override any entry without affecting others.
type Selectors struct {
	Container        string   `mapstructure:"container"`
	Card             string   `mapstructure:"card"`
	DetailPanel      string   `mapstructure:"detail_panel"`
	Title            string   `mapstructure:"title"`
	Publisher        string   `mapstructure:"publisher"`
	Description      string   `mapstructure:"description"`
	DetailsContainer string   `mapstructure:"details_container"`
	DetailItem       string   `mapstructure:"detail_item"`
	DetailText       string   `mapstructure:"detail_text"`
	ApplyLink        string   `mapstructure:"apply_link"`
	Results          string   `mapstructure:"results"`
	SearchBox        []string `mapstructure:"search_box"`
	ConsentButtons   []string `mapstructure:"consent_buttons"`
}

// DefaultSelectors matches the Google Jobs results layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Container:        "infinity-scrolling",
		Card:             "div.EimVGf",
		DetailPanel:      `div[jsname="H9tDt"]`,
		Title:            "h1.LZAQDf",
		Publisher:        "div.waQ7qe",
		Description:      `span[jsname="QAWWu"], span.us2QZb`,
		DetailsContainer: "div.mLdNec",
		DetailItem:       "div.nYym1e",
		DetailText:       "span.RcZtZb",
		ApplyLink:        "span.fQYLde a",
		Results:          "div.EimVGf",
		SearchBox: []string{
			`textarea[name="q"]`,
			`input[name="q"]`,
			`input[aria-label="Search"]`,
		},
		ConsentButtons: []string{
			"button#L2AGLb",
			`button[aria-label*="Accept"]`,
			`form[action*="consent"] button`,
		},
	}
}

// Merge returns s with every empty entry filled from base.
func (s Selectors) Merge(base Selectors) Selectors {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	out := Selectors{
		Container:        pick(s.Container, base.Container),
		Card:             pick(s.Card, base.Card),
		DetailPanel:      pick(s.DetailPanel, base.DetailPanel),
		Title:            pick(s.Title, base.Title),
		Publisher:        pick(s.Publisher, base.Publisher),
		Description:      pick(s.Description, base.Description),
		DetailsContainer: pick(s.DetailsContainer, base.DetailsContainer),
		DetailItem:       pick(s.DetailItem, base.DetailItem),
		DetailText:       pick(s.DetailText, base.DetailText),
		ApplyLink:        pick(s.ApplyLink, base.ApplyLink),
		Results:          pick(s.Results, base.Results),
		SearchBox:        append([]string(nil), s.SearchBox...),
		ConsentButtons:   append([]string(nil), s.ConsentButtons...),
	}
	if len(out.SearchBox) == 0 {
		out.SearchBox = append([]string(nil), base.SearchBox...)
	}
	if len(out.ConsentButtons) == 0 {
		out.ConsentButtons = append([]string(nil), base.ConsentButtons...)
	}
	return out
}
