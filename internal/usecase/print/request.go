package print

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/criteria"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
)

// Request field names.
const (
	FieldTrialIDs       = "trial_ids"
	FieldLinkTemplate   = "link_template"
	FieldNewSearchLink  = "new_search_link"
	FieldSearchCriteria = "search_criteria"
)

var (
	newSearchLinkDisallowed = regexp.MustCompile(`[^a-zA-Z0-9\-/.]`)
	linkTemplateDisallowed  = regexp.MustCompile(`[^a-zA-Z0-9\-/.&=?%_]`)
)

// Request is a validated generate request.
type Request struct {
	TrialIDs      []string
	LinkTemplate  string
	NewSearchLink string
	Criteria      *criteria.Payload
	// Metadata is the request body re-encoded without insignificant whitespace.
	Metadata string
}

type rawRequest struct {
	TrialIDs       json.RawMessage `json:"trial_ids"`
	LinkTemplate   json.RawMessage `json:"link_template"`
	NewSearchLink  json.RawMessage `json:"new_search_link"`
	SearchCriteria json.RawMessage `json:"search_criteria"`
}

// ParseRequest decodes and validates a generate request body. defaultNewSearchLink
// is used when the body has no new_search_link.
func ParseRequest(body []byte, defaultNewSearchLink string) (Request, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Request{}, domain.ErrInvalidRequestBody
	}
	var raw rawRequest
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequestBody, err)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequestBody, err)
	}

	ids, err := parseTrialIDs(raw.TrialIDs)
	if err != nil {
		return Request{}, err
	}

	linkTemplate, err := parseLinkTemplate(raw.LinkTemplate)
	if err != nil {
		return Request{}, err
	}

	newSearchLink, err := parseNewSearchLink(raw.NewSearchLink, defaultNewSearchLink)
	if err != nil {
		return Request{}, err
	}

	payload, err := parseSearchCriteria(raw.SearchCriteria)
	if err != nil {
		return Request{}, err
	}

	return Request{
		TrialIDs:      ids,
		LinkTemplate:  linkTemplate,
		NewSearchLink: newSearchLink,
		Criteria:      payload,
		Metadata:      compact.String(),
	}, nil
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func parseTrialIDs(raw json.RawMessage) ([]string, error) {
	if isAbsent(raw) {
		return nil, domain.NewMissingField(FieldTrialIDs)
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, domain.NewInvalidField(FieldTrialIDs, domain.ReasonWrongType)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ids = append(ids, v)
		}
	}
	if len(ids) == 0 {
		return nil, domain.NewMissingField(FieldTrialIDs)
	}
	return ids, nil
}

func parseString(field string, raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", domain.NewInvalidField(field, domain.ReasonWrongType)
	}
	return strings.TrimSpace(s), nil
}

func parseLinkTemplate(raw json.RawMessage) (string, error) {
	link, err := parseString(FieldLinkTemplate, raw)
	if err != nil {
		return "", err
	}
	if link == "" {
		return "", domain.NewMissingField(FieldLinkTemplate)
	}
	if !strings.HasPrefix(link, "/") {
		return "", domain.NewInvalidField(FieldLinkTemplate, domain.ReasonMustBeAbsolutePath)
	}
	if linkTemplateDisallowed.MatchString(strings.ReplaceAll(link, printdoc.TrialIDPlaceholder, "")) {
		return "", domain.NewInvalidField(FieldLinkTemplate, domain.ReasonInvalidCharacters)
	}
	return link, nil
}

func parseNewSearchLink(raw json.RawMessage, fallback string) (string, error) {
	link, err := parseString(FieldNewSearchLink, raw)
	if err != nil {
		return "", err
	}
	if link == "" {
		if strings.TrimSpace(fallback) == "" {
			return "", fmt.Errorf("%w: default new search link not set", domain.ErrConfiguration)
		}
		return strings.TrimSpace(fallback), nil
	}
	if !strings.HasPrefix(link, "/") {
		return "", domain.NewInvalidField(FieldNewSearchLink, domain.ReasonMustBeAbsolutePath)
	}
	if newSearchLinkDisallowed.MatchString(link) {
		return "", domain.NewInvalidField(FieldNewSearchLink, domain.ReasonInvalidCharacters)
	}
	return link, nil
}

func parseSearchCriteria(raw json.RawMessage) (*criteria.Payload, error) {
	t := bytes.TrimSpace(raw)
	if len(t) > 0 && t[0] != '{' && !bytes.Equal(t, []byte("null")) {
		return nil, domain.NewInvalidField(FieldSearchCriteria, domain.ReasonWrongType)
	}
	p, err := criteria.ParsePayload(t)
	if err != nil {
		return nil, domain.NewInvalidField(FieldSearchCriteria, domain.ReasonWrongType)
	}
	return p, nil
}
