// Package render turns a print page model into HTML.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/criteria"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
)

//go:embed templates/print.html
var defaultTemplate string

// Renderer executes the print page template.
type Renderer struct {
	tmpl *template.Template
}

// New parses the template at path, or the embedded default when path is empty.
func New(path string) (*Renderer, error) {
	text := defaultTemplate
	name := "print.html"
	if path != "" {
		b, err := os.ReadFile(path) //nolint:gosec // operator-supplied config
		if err != nil {
			return nil, fmt.Errorf("read print template: %w", err)
		}
		text, name = string(b), path
	}

	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse print template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type view struct {
	Trials        []trialView
	Criteria      []criteria.Criterion
	NewSearchLink string
	Filtered      bool
}

type trialView struct {
	trial.Trial
	Link      string
	Locations []siteView
}

type siteView struct {
	Name   string
	Place  string
	Phone  string
	Email  string
	Status string
	VA     bool
}

// Render produces the page HTML. The output still contains
// printdoc.URLPlaceholder; the caller substitutes it once the key is known.
func (r *Renderer) Render(_ context.Context, page printdoc.Page) (string, error) {
	v := view{
		NewSearchLink: page.NewSearchLink,
		Filtered:      page.Location.Filtering(),
	}
	if page.Criteria != nil {
		v.Criteria = page.Criteria.Criteria()
	}
	for _, t := range page.Trials {
		v.Trials = append(v.Trials, trialView{
			Trial:     t,
			Link:      strings.ReplaceAll(page.LinkTemplate, printdoc.TrialIDPlaceholder, t.NCIID),
			Locations: sitesView(t.Sites),
		})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render print page: %w", err)
	}
	return buf.String(), nil
}

func sitesView(sites []trial.Site) []siteView {
	out := make([]siteView, 0, len(sites))
	for _, s := range sites {
		var place []string
		for _, p := range []string{s.OrgCity, s.OrgStateOrProvince, s.OrgCountry} {
			if p != "" {
				place = append(place, p)
			}
		}
		out = append(out, siteView{
			Name:   s.OrgName,
			Place:  strings.Join(place, ", "),
			Phone:  s.OrgPhone,
			Email:  s.OrgEmail,
			Status: s.RecruitmentStatus,
			VA:     s.IsVA(),
		})
	}
	return out
}
