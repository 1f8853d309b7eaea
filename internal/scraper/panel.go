package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/khrees2412/jobharvest/internal/classifier"
)

// ParsePanel reads the raw fragments of a detail panel from its markup.
func ParsePanel(html string, sel Selectors) (classifier.Fragments, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return classifier.Fragments{}, fmt.Errorf("parse detail panel: %w", err)
	}

	var f classifier.Fragments
	if s := doc.Find(sel.Title).First(); s.Length() > 0 {
		text := s.Text()
		f.Title = &text
	}
	if s := doc.Find(sel.Publisher).First(); s.Length() > 0 {
		text := s.Text()
		f.Publisher = &text
	}

	doc.Find(sel.Description).Each(func(_ int, s *goquery.Selection) {
		f.Description = append(f.Description, s.Text())
	})

	doc.Find(sel.DetailsContainer).First().Find(sel.DetailItem).Each(func(_ int, item *goquery.Selection) {
		if text := item.Find(sel.DetailText).First(); text.Length() > 0 {
			f.Details = append(f.Details, text.Text())
		}
	})

	doc.Find(sel.ApplyLink).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		f.Links = append(f.Links, classifier.RawLink{Href: strings.TrimSpace(href), Text: a.Text()})
	})

	return f, nil
}
