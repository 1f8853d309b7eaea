// Package classifier turns the loose text of a listing's detail panel into a
// typed models.JobRecord.
//
// Detail chips carry no labels, so each one is matched against an ordered
// keyword table. The first rule that matches claims the chip; anything left
// over is kept as a benefit. The order of Rules decides ambiguous chips, e.g.
// "$20 per hour" is claimed by the time-posted rule because "hour" is tested
// before any salary keyword.
package classifier

import (
	"slices"
	"strings"
	"time"

	"github.com/khrees2412/jobharvest/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field identifies the record attribute a rule assigns to.
type Field int

const (
	TimePosted Field = iota
	Salary
	JobType
	Education
	// Benefit is the catch-all for chips no rule claims.
	Benefit
)

func (f Field) String() string {
	switch f {
	case TimePosted:
		return "time_posted"
	case Salary:
		return "salary"
	case JobType:
		return "job_type"
	case Education:
		return "education"
	default:
		return "benefits"
	}
}

// Rule maps a predicate over a chip's text to a field.
type Rule struct {
	Field Field
	Match func(text string) bool
}

// Rules is evaluated top to bottom; the first match wins.
var Rules = []Rule{
	{Field: TimePosted, Match: containsFold("ago", "day", "hour", "week", "month")},
	{Field: Salary, Match: containsAny("£", "$", "€", "a year", "per hour", "K–", "K ")},
	{Field: JobType, Match: containsAny("Full–time", "Full-time", "Part-time", "Contractor", "Contract", "Temporary", "Intern")},
	{Field: Education, Match: containsAny("Degree", "Bachelor", "Master", "PhD", "Education", "No Degree")},
}

const (
	applyPrefix     = "Apply on "
	educationPrefix = "Education: "
	enDash          = "–"
)

func containsAny(keywords ...string) func(string) bool {
	return func(text string) bool {
		for _, k := range keywords {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}

func containsFold(keywords ...string) func(string) bool {
	return func(text string) bool {
		return containsAny(keywords...)(cases.Lower(language.Und).String(text))
	}
}

// Match returns the field a chip is assigned to.
func Match(text string) Field {
	for _, r := range Rules {
		if r.Match(text) {
			return r.Field
		}
	}
	return Benefit
}

// RawLink is an apply anchor as read from the page. An empty Href means the
// anchor had no resolvable target.
type RawLink struct {
	Href string
	Text string
}

// Fragments is everything read from one detail panel. Nil Title or Publisher
// means the element was absent.
type Fragments struct {
	Title       *string
	Publisher   *string
	Description []string
	Details     []string
	Links       []RawLink
}

// Details is the classified result of a panel's detail chips.
type Details struct {
	TimePosted string
	Salary     string
	JobType    string
	Education  string
	Benefits   []string
}

// ClassifyDetails assigns every chip to exactly one field. Later chips for
// the same field overwrite earlier ones.
func ClassifyDetails(chips []string) Details {
	d := Details{
		TimePosted: models.NotSpecified,
		Salary:     models.NotSpecified,
		JobType:    models.NotSpecified,
		Education:  models.NotSpecified,
		Benefits:   []string{},
	}

	for _, raw := range chips {
		text := strings.TrimSpace(raw)
		switch Match(text) {
		case TimePosted:
			d.TimePosted = text
		case Salary:
			d.Salary = text
		case JobType:
			d.JobType = text
		case Education:
			d.Education = text
		default:
			if text != "" && text != models.NotSpecified {
				d.Benefits = append(d.Benefits, text)
			}
		}
	}

	if d.Education != models.NotSpecified && !slices.Contains(d.Benefits, d.Education) {
		d.Benefits = append(d.Benefits, educationPrefix+d.Education)
	}
	d.Salary = strings.ReplaceAll(d.Salary, enDash, "-")
	return d
}

// ParseLinks converts apply anchors to application links, dropping anchors
// without an href.
func ParseLinks(raw []RawLink) []models.ApplicationLink {
	links := []models.ApplicationLink{}
	for _, l := range raw {
		if l.Href == "" {
			continue
		}
		platform := models.UnknownPlatform
		text := strings.TrimSpace(l.Text)
		if strings.HasPrefix(text, applyPrefix) {
			platform = strings.TrimSpace(strings.TrimPrefix(text, applyPrefix))
		}
		links = append(links, models.ApplicationLink{URL: l.Href, Platform: platform})
	}
	return links
}

// Classify builds the record for one listing.
func Classify(f Fragments, searchTerm string, scrapedAt time.Time) models.JobRecord {
	rec := models.NewJobRecord(searchTerm, scrapedAt)

	if f.Title != nil {
		rec.JobTitle = strings.TrimSpace(*f.Title)
	}
	if f.Publisher != nil {
		rec.Publisher = strings.TrimSpace(*f.Publisher)
	}
	if desc := joinDescription(f.Description); desc != "" {
		rec.Description = desc
	}

	d := ClassifyDetails(f.Details)
	rec.TimePosted = d.TimePosted
	rec.Salary = d.Salary
	rec.JobType = d.JobType
	rec.Education = d.Education
	rec.Benefits = d.Benefits
	rec.ApplicationLinks = ParseLinks(f.Links)
	return rec
}

func joinDescription(parts []string) string {
	trimmed := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, " ")
}
