package wiki

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"WikiFetch/internal/domain"
)

const (
	headingSelector = "h1, h2, h3, h4, h5, h6"
	noiseSelector   = "style, script, link, sup.mw-ref, sup.reference, span#coordinates, .mw-empty-elt"
)

func parseArticle(doc *goquery.Document, title domain.Title) (domain.Article, error) {
	sections := doc.Find("section[data-mw-section-id]")
	if sections.Length() == 0 {
		return domain.Article{}, fmt.Errorf("%w: no sections in article %s", domain.ErrDeserialization, title)
	}

	doc.Find(noiseSelector).Remove()

	article := domain.Article{
		Title:        title,
		DisplayTitle: cleanText(doc.Find("head > title").First().Text()),
		Revision:     revisionFromAbout(doc.Find("html").AttrOr("about", "")),
	}

	sections.Each(func(_ int, sel *goquery.Selection) {
		index, err := strconv.Atoi(sel.AttrOr("data-mw-section-id", ""))
		if err != nil || index < 0 {
			return
		}

		section := domain.Section{Index: index}
		if heading := findHeading(sel); heading.Length() > 0 {
			section.Heading = cleanText(heading.Text())
			section.Anchor = heading.AttrOr("id", "")
			section.Level = headingLevel(goquery.NodeName(heading))
		}

		paragraphs := paragraphTexts(sel)
		if index == 0 {
			article.Lead, paragraphs = moveLeadUp(paragraphs)
		}
		section.Text = strings.Join(paragraphs, "\n\n")

		article.Sections = append(article.Sections, section)
	})

	if len(article.Sections) == 0 {
		return domain.Article{}, fmt.Errorf("%w: no readable sections in article %s", domain.ErrDeserialization, title)
	}
	if article.DisplayTitle == "" {
		article.DisplayTitle = title.Name
	}

	return article, nil
}

func findHeading(sel *goquery.Selection) *goquery.Selection {
	heading := sel.ChildrenFiltered(headingSelector).First()
	if heading.Length() == 0 {
		heading = sel.ChildrenFiltered("div.mw-heading").ChildrenFiltered(headingSelector).First()
	}
	return heading
}

func headingLevel(nodeName string) int {
	if len(nodeName) == 2 && nodeName[0] == 'h' {
		if level, err := strconv.Atoi(nodeName[1:]); err == nil {
			return level
		}
	}
	return 0
}

func paragraphTexts(sel *goquery.Selection) []string {
	var out []string
	sel.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// moveLeadUp picks the first paragraph with actual prose and moves it to the
// front, ahead of anything that preceded it in the lead section.
func moveLeadUp(paragraphs []string) (string, []string) {
	for i, p := range paragraphs {
		if !hasLetters(p) {
			continue
		}
		out := make([]string, 0, len(paragraphs))
		out = append(out, p)
		out = append(out, paragraphs[:i]...)
		out = append(out, paragraphs[i+1:]...)
		return p, out
	}
	return "", paragraphs
}

func hasLetters(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// revisionFromAbout reads ".../revision/123" from the root about attribute.
func revisionFromAbout(about string) int64 {
	i := strings.LastIndex(about, "/revision/")
	if i < 0 {
		return 0
	}
	rev, err := strconv.ParseInt(about[i+len("/revision/"):], 10, 64)
	if err != nil {
		return 0
	}
	return rev
}

// revisionFromETag reads the revision from an ETag like W/"123/uuid".
func revisionFromETag(etag string) int64 {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	head, _, _ := strings.Cut(etag, "/")
	rev, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0
	}
	return rev
}
