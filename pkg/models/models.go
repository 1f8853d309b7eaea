package models

import (
	"encoding/json"
	"time"
)

// Sentinel values used in place of missing fields. Every JobRecord field is
// always populated, so consumers never have to check for absence.
const (
	NotSpecified        = "Not specified"
	TitleNotFound       = "Title not found"
	PublisherNotFound   = "Publisher not found"
	DescriptionNotFound = "Description not found"
	UnknownPlatform     = "Unknown Platform"
)

// ScrapeTimeLayout is the local timestamp format written to scrape_time.
const ScrapeTimeLayout = "02-Jan-2006 T03:04"

// ApplicationLink is one "Apply on ..." anchor from a listing's detail panel
type ApplicationLink struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

// JobRecord represents one extracted and classified job listing
type JobRecord struct {
	ScrapeTime       string            `json:"scrape_time"`
	SearchTerm       string            `json:"search_term"`
	JobTitle         string            `json:"job_title"`
	Publisher        string            `json:"publisher"` // company • location • via platform
	TimePosted       string            `json:"time_posted"`
	Salary           string            `json:"salary"`
	JobType          string            `json:"job_type"`
	Education        string            `json:"education"`
	Benefits         []string          `json:"benefits"`
	Description      string            `json:"description"`
	ApplicationLinks []ApplicationLink `json:"application_links"`
}

// NewJobRecord returns a record with every field set to its sentinel.
func NewJobRecord(searchTerm string, scrapedAt time.Time) JobRecord {
	return JobRecord{
		ScrapeTime:       scrapedAt.Format(ScrapeTimeLayout),
		SearchTerm:       searchTerm,
		JobTitle:         TitleNotFound,
		Publisher:        PublisherNotFound,
		TimePosted:       NotSpecified,
		Salary:           NotSpecified,
		JobType:          NotSpecified,
		Education:        NotSpecified,
		Benefits:         []string{},
		Description:      DescriptionNotFound,
		ApplicationLinks: []ApplicationLink{},
	}
}

// UnmarshalJSON reads records written by any version of the harvester.
// Older files keep the description under "desc"; missing or empty fields
// read as their sentinel and absent lists as empty.
func (r *JobRecord) UnmarshalJSON(data []byte) error {
	type plain JobRecord
	var aux struct {
		plain
		Desc string `json:"desc"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = JobRecord(aux.plain)
	if r.Description == "" {
		r.Description = aux.Desc
	}
	r.fillSentinels()
	return nil
}

func (r *JobRecord) fillSentinels() {
	orDefault := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	orDefault(&r.ScrapeTime, NotSpecified)
	orDefault(&r.SearchTerm, NotSpecified)
	orDefault(&r.JobTitle, TitleNotFound)
	orDefault(&r.Publisher, PublisherNotFound)
	orDefault(&r.TimePosted, NotSpecified)
	orDefault(&r.Salary, NotSpecified)
	orDefault(&r.JobType, NotSpecified)
	orDefault(&r.Education, NotSpecified)
	orDefault(&r.Description, DescriptionNotFound)
	if r.Benefits == nil {
		r.Benefits = []string{}
	}
	if r.ApplicationLinks == nil {
		r.ApplicationLinks = []ApplicationLink{}
	}
	for i := range r.ApplicationLinks {
		orDefault(&r.ApplicationLinks[i].Platform, UnknownPlatform)
	}
}

// Identity is the dedup key for a record: the first application link URL,
// or title and publisher joined by "-" when the listing has no links.
func (r JobRecord) Identity() string {
	if len(r.ApplicationLinks) > 0 {
		return r.ApplicationLinks[0].URL
	}
	return r.JobTitle + "-" + r.Publisher
}

// Platform returns the platform of the first application link, if any.
func (r JobRecord) Platform() string {
	if len(r.ApplicationLinks) > 0 {
		return r.ApplicationLinks[0].Platform
	}
	return UnknownPlatform
}

// Document is the persisted store file.
type Document struct {
	ScrapeTimestamp string      `json:"scrape_timestamp"`
	TotalJobs       int         `json:"total_jobs"`
	NewJobsAdded    *int        `json:"new_jobs_added,omitempty"`
	ExistingJobs    *int        `json:"existing_jobs,omitempty"`
	Jobs            []JobRecord `json:"jobs"`
}

// Run is one harvest invocation as recorded in the history database
type Run struct {
	ID         string     `json:"id"`
	QuerySpec  string     `json:"query_spec"`
	Queries    int        `json:"queries"`
	Accepted   int        `json:"accepted"`
	Duplicates int        `json:"duplicates"`
	Failures   int        `json:"failures"`
	NewJobs    int        `json:"new_jobs"`
	TotalJobs  int        `json:"total_jobs"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}
