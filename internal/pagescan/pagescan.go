// Package pagescan pulls classifiable text blocks out of HTML pages using
// per-category selector lists tried in priority order.
package pagescan

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
)

// minBlockRunes 區塊修剪後至少需要的字元數
const minBlockRunes = 3

// uiPattern 命中 class、role 或 aria-label 的元素視為介面元件，不回報
var uiPattern = regexp.MustCompile(`(?i)nav|menu|button|toolbar|breadcrumb|search|filter`)

var ErrNoCategories = errors.New("at least one category is required")

// Category is a named group of selectors, highest priority first.
type Category struct {
	Name      string
	Selectors []string
}

// Block is one element's text.
type Block struct {
	Category string `json:"category"`
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// DefaultCategories targets social feed markup: posts, messages, comments and
// profile sections, with generic article paragraphs as the last resort.
var DefaultCategories = []Category{
	{Name: "posts", Selectors: []string{
		".feed-shared-update-v2__description .update-components-text",
		".feed-shared-text__text-view",
		".feed-shared-update-v2__commentary .update-components-text",
		`div[data-test-id="main-feed-activity-card"] .break-words`,
		".social-details-social-activity .break-words",
		`[data-test-id="post-text"]`,
		"article p",
		".feed-shared-text span",
		".update-components-text",
		`[role="article"] p`,
		".artdeco-card p",
	}},
	{Name: "messages", Selectors: []string{
		".msg-s-event-listitem__body",
		".msg-s-message-list__event .break-words",
		".message-item-content__body",
		".msg-s-message-group__event-text",
		".msg-overlay-conversation-bubble__text",
		".messaging-thread-item p",
		".msg-conversation-card p",
		`[data-test-id="message-text"]`,
	}},
	{Name: "comments", Selectors: []string{
		".comments-comment-item__main-content .break-words",
		".comment .break-words",
		".social-details-social-activity__comment-item .break-words",
		".comments-comment-item-content-body",
		".comment-content .break-words",
		".comment p",
		".comment-text",
		`[data-test-id="comment-text"]`,
	}},
	{Name: "profiles", Selectors: []string{
		".pv-about__summary-text .break-words",
		".pv-profile-section__card-item-v2 .break-words",
		".experience-item__description .break-words",
		".pv-about-section .break-words",
		".pv-profile-section__card-header .break-words",
		".profile-section p",
		".experience-item p",
		".profile-content .break-words",
	}},
	{Name: "generic", Selectors: []string{
		"main p",
		"p",
	}},
}

type compiledCategory struct {
	name      string
	selectors []string
	matchers  []cascadia.Selector
}

// Scanner extracts Blocks from HTML documents. It is safe for concurrent use.
type Scanner struct {
	categories []compiledCategory
	logger     *zap.Logger
}

// New compiles every selector up front so that a typo fails here rather than
// silently matching nothing.
func New(categories []Category, logger *zap.Logger) (*Scanner, error) {
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scanner{logger: logger}
	for _, c := range categories {
		cc := compiledCategory{name: c.Name}
		for _, sel := range c.Selectors {
			m, err := cascadia.Compile(sel)
			if err != nil {
				return nil, fmt.Errorf("category %s: invalid selector %q: %w", c.Name, sel, err)
			}
			cc.selectors = append(cc.selectors, sel)
			cc.matchers = append(cc.matchers, m)
		}
		s.categories = append(s.categories, cc)
	}
	return s, nil
}

// Scan parses r and returns the text of every matched element in category
// order, then selector order. An element is reported once, under the first
// category and selector that matched it.
func (s *Scanner) Scan(r io.Reader) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var blocks []Block
	seen := doc.FindNodes()

	for _, c := range s.categories {
		found := 0
		for i, m := range c.matchers {
			matched := doc.FindMatcher(m).NotSelection(seen)
			if matched.Length() == 0 {
				continue
			}
			seen = seen.AddSelection(matched)

			matched.Each(func(_ int, el *goquery.Selection) {
				if isUIElement(el) {
					s.logger.Debug("Skipping UI element", zap.String("selector", c.selectors[i]))
					return
				}
				text := strings.TrimSpace(el.Text())
				if utf8.RuneCountInString(text) < minBlockRunes {
					return
				}
				blocks = append(blocks, Block{Category: c.name, Selector: c.selectors[i], Text: text})
				found++
			})
		}
		s.logger.Debug("Scanned category", zap.String("category", c.name), zap.Int("blocks", found))
	}
	return blocks, nil
}

func isUIElement(el *goquery.Selection) bool {
	class, _ := el.Attr("class")
	role, _ := el.Attr("role")
	label, _ := el.Attr("aria-label")
	return uiPattern.MatchString(class + " " + role + " " + label)
}
