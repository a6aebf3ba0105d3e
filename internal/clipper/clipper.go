package clipper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meal-rotation/internal/ghost"
	"meal-rotation/internal/recipe"
	"meal-rotation/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// maxContentRunes caps the page text handed to the extractor.
const maxContentRunes = 20000

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient  *http.Client
	extractor   *recipe.Extractor
	ghostClient ghost.Client
}

// ClipResult is the outcome of clipping a single page.
type ClipResult struct {
	Recipe recipe.Recipe
	Meta   shared.AgentMeta
}

// NewClipper creates a new Clipper instance. ghostClient may be nil when
// clipped recipes are not published.
func NewClipper(extractor *recipe.Extractor, ghostClient ghost.Client) *Clipper {
	return &Clipper{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		extractor:   extractor,
		ghostClient: ghostClient,
	}
}

// SourceID is the identity under which a clipped URL is stored, so a
// second clip of the same page updates the recipe instead of duplicating it.
func SourceID(url string) string {
	return "url:" + strings.TrimSpace(url)
}

// ClipURL fetches the URL and extracts a structured recipe from it.
// Meta is returned even when extraction fails.
func (c *Clipper) ClipURL(ctx context.Context, url string) (ClipResult, error) {
	title, content, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return ClipResult{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	res, err := c.extractor.ExtractRecipe(ctx, recipe.PostData{
		SourceID:  SourceID(url),
		SourceURL: url,
		Title:     title,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Content:   content,
	})
	if err != nil {
		return ClipResult{Meta: res.Meta}, fmt.Errorf("ai extraction failed: %w", err)
	}
	return ClipResult{Recipe: res.Recipe, Meta: res.Meta}, nil
}

// Publish saves the recipe to Ghost as a published post.
func (c *Clipper) Publish(ctx context.Context, rec recipe.Recipe) (*ghost.Post, error) {
	if c.ghostClient == nil {
		return nil, fmt.Errorf("ghost publishing is not configured")
	}
	post, err := c.ghostClient.CreatePost(ctx, rec.Title, formatToHTML(rec), true)
	if err != nil {
		return nil, fmt.Errorf("failed to save to ghost: %w", err)
	}
	return post, nil
}

// CanPublish reports whether a Ghost client is configured.
func (c *Clipper) CanPublish() bool {
	return c.ghostClient != nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (title, text string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title = strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	text = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if r := []rune(text); len(r) > maxContentRunes {
		text = string(r[:maxContentRunes])
	}
	return title, text, nil
}

func formatToHTML(r recipe.Recipe) string {
	var sb strings.Builder
	if r.SourceURL != "" {
		u := html.EscapeString(r.SourceURL)
		fmt.Fprintf(&sb, "<p><i>Imported from: <a href=\"%s\">%s</a></i></p>", u, u)
	}
	if r.Description != "" {
		fmt.Fprintf(&sb, "<p>%s</p>", html.EscapeString(r.Description))
	}

	sb.WriteString("<h2>Ingredients</h2><ul>")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(formatIngredient(ing)))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h2>Instructions</h2><ol>")
	for _, step := range r.Instructions {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(step))
	}
	sb.WriteString("</ol>")

	sb.WriteString("<hr>")
	fmt.Fprintf(&sb, "<p><strong>Servings:</strong> %d", r.ServingsDefault)
	if r.Cuisine != "" {
		fmt.Fprintf(&sb, " | <strong>Cuisine:</strong> %s", html.EscapeString(r.Cuisine))
	}
	sb.WriteString("</p>")

	return sb.String()
}

func formatIngredient(ing recipe.Ingredient) string {
	qty := strconv.FormatFloat(ing.Quantity, 'f', -1, 64)
	if ing.Unit == "" {
		return fmt.Sprintf("%s %s", qty, ing.Name)
	}
	return fmt.Sprintf("%s %s %s", qty, ing.Unit, ing.Name)
}
