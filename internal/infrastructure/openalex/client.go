package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AffiliationChecker/internal/domain"
	"AffiliationChecker/internal/source"
)

const (
	defaultBaseURL = "https://api.openalex.org"
	idPrefix       = "https://openalex.org/"
	maxPerPage     = 200
)

// Client reads author profiles and works from the OpenAlex REST API.
type Client struct {
	client      *http.Client
	baseURL     string
	mailto      string
	searchLimit int
}

var _ source.Source = (*Client)(nil)

// NewClient wires an HTTP client; mailto joins the OpenAlex polite pool when set.
func NewClient(client *http.Client, baseURL, mailto string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		mailto:      strings.TrimSpace(mailto),
		searchLimit: 25,
	}
}

// WithSearchLimit caps the number of authors returned by a name search.
func (c *Client) WithSearchLimit(limit int) *Client {
	if limit > 0 {
		c.searchLimit = min(limit, maxPerPage)
	}
	return c
}

// Name identifies the source inside the registry.
func (c *Client) Name() string {
	return "openalex"
}

// FetchAuthorProfile loads /authors/{id}.
func (c *Client) FetchAuthorProfile(ctx context.Context, externalID string) (domain.AuthorProfile, error) {
	id := trimID(externalID)
	if id == "" {
		return domain.AuthorProfile{}, fmt.Errorf("%w: empty author id", domain.ErrNotFound)
	}

	var payload author
	if err := c.get(ctx, "/authors/"+url.PathEscape(id), nil, &payload); err != nil {
		return domain.AuthorProfile{}, fmt.Errorf("author %s: %w", id, err)
	}
	return payload.toProfile(), nil
}

// SearchAuthors runs /authors?search= for a full name.
func (c *Client) SearchAuthors(ctx context.Context, name string) ([]domain.AuthorProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty search name", domain.ErrNotFound)
	}

	query := url.Values{}
	query.Set("search", name)
	query.Set("per-page", strconv.Itoa(c.searchLimit))

	var payload struct {
		Results []author `json:"results"`
	}
	if err := c.get(ctx, "/authors", query, &payload); err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}

	profiles := make([]domain.AuthorProfile, 0, len(payload.Results))
	for _, a := range payload.Results {
		profiles = append(profiles, a.toProfile())
	}
	return profiles, nil
}

// FetchRecentWorks loads the newest works of an author, newest first.
func (c *Client) FetchRecentWorks(ctx context.Context, externalID string, limit int) ([]domain.WorkRecord, error) {
	id := trimID(externalID)
	if id == "" || limit <= 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("filter", "author.id:"+id)
	query.Set("sort", "publication_date:desc")
	query.Set("per-page", strconv.Itoa(min(limit, maxPerPage)))

	var payload struct {
		Results []work `json:"results"`
	}
	if err := c.get(ctx, "/works", query, &payload); err != nil {
		return nil, fmt.Errorf("works of %s: %w", id, err)
	}

	works := make([]domain.WorkRecord, 0, len(payload.Results))
	for _, w := range payload.Results {
		works = append(works, w.toRecord())
	}
	return works, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.mailto != "" {
		query.Set("mailto", c.mailto)
	}

	endpoint := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: request %s: %v", domain.ErrTransientFetch, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: openalex returned %s", domain.ErrTransientFetch, resp.Status)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("openalex returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) userAgent() string {
	if c.mailto == "" {
		return "AffiliationChecker/1.0"
	}
	return "AffiliationChecker/1.0 (mailto:" + c.mailto + ")"
}

type institution struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	CountryCode string `json:"country_code"`
}

type author struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Affiliations []struct {
		Institution institution `json:"institution"`
		Years       []int       `json:"years"`
	} `json:"affiliations"`
	LastKnownInstitutions []institution `json:"last_known_institutions"`
	LastKnownInstitution  *institution  `json:"last_known_institution"`
}

// toProfile flattens the history and appends last-known institutions that the history
// does not already contain.
func (a author) toProfile() domain.AuthorProfile {
	profile := domain.AuthorProfile{
		ExternalID:    trimID(a.ID),
		CanonicalName: plainText(a.DisplayName),
	}

	seen := map[string]struct{}{}
	for _, aff := range a.Affiliations {
		start, end := yearSpan(aff.Years)
		profile.Affiliations = append(profile.Affiliations, aff.Institution.toRecord(start, end, domain.SourceProfileHistory))
		if key := institutionKey(aff.Institution); key != "" {
			seen[key] = struct{}{}
		}
	}

	lastKnown := a.LastKnownInstitutions
	if a.LastKnownInstitution != nil {
		lastKnown = append(lastKnown, *a.LastKnownInstitution)
	}
	for _, inst := range lastKnown {
		key := institutionKey(inst)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		profile.Affiliations = append(profile.Affiliations, inst.toRecord(0, 0, domain.SourceLastKnown))
	}

	return profile
}

type work struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DisplayName     string `json:"display_name"`
	PublicationYear int    `json:"publication_year"`
	Authorships     []struct {
		Author struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"author"`
		Institutions []institution `json:"institutions"`
	} `json:"authorships"`
}

func (w work) toRecord() domain.WorkRecord {
	title := w.Title
	if title == "" {
		title = w.DisplayName
	}
	rec := domain.WorkRecord{
		WorkID: trimID(w.ID),
		Title:  plainText(title),
		Year:   w.PublicationYear,
	}
	for _, authorship := range w.Authorships {
		for _, inst := range authorship.Institutions {
			rec.CoauthorAffiliations = append(rec.CoauthorAffiliations, domain.CoauthorAffiliation{
				CoauthorID:   trimID(authorship.Author.ID),
				CoauthorName: plainText(authorship.Author.DisplayName),
				Affiliation:  inst.toRecord(w.PublicationYear, w.PublicationYear, domain.SourceCoauthorWork),
			})
		}
	}
	return rec
}

func (i institution) toRecord(start, end int, src domain.AffiliationSource) domain.AffiliationRecord {
	name := plainText(i.DisplayName)
	if name == "" {
		name = "Unknown Institution"
	}
	return domain.AffiliationRecord{
		InstitutionID:   trimID(i.ID),
		InstitutionName: name,
		CountryCode:     domain.NormalizeCountryCode(i.CountryCode),
		YearStart:       start,
		YearEnd:         end,
		Source:          src,
	}
}

func institutionKey(i institution) string {
	if id := trimID(i.ID); id != "" {
		return id
	}
	return strings.ToLower(plainText(i.DisplayName))
}

func yearSpan(years []int) (int, int) {
	var start, end int
	for _, y := range years {
		if y <= 0 {
			continue
		}
		if start == 0 || y < start {
			start = y
		}
		if y > end {
			end = y
		}
	}
	return start, end
}

func trimID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), idPrefix)
}

// plainText drops inline markup and decodes entities OpenAlex keeps in titles and
// display names ("<i>in vivo</i>", "Universit&eacute;").
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
