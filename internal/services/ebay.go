package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/cardvault/cardvault/internal/models"
)

const (
	ebayBaseURL        = "https://www.ebay.com/sch/i.html"
	ebayDefaultTimeout = 10 * time.Second
)

// PriceSource fetches a current market value for an entry's identifying
// attributes. Implementations return an error when no price can be
// determined; callers decide the fallback.
type PriceSource interface {
	FetchPrice(ctx context.Context, entry models.Entry) (float64, error)
}

// EbayPriceSource estimates market value from recent eBay listings matching
// the entry's name, edition and grade. Outbound requests go through a rate
// limiter so a large roster refresh cannot hammer the site.
type EbayPriceSource struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewEbayPriceSource creates a price source limited to requestsPerMinute
// outbound searches.
func NewEbayPriceSource(requestsPerMinute int) *EbayPriceSource {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}

	return &EbayPriceSource{
		client: &http.Client{
			Timeout: ebayDefaultTimeout,
		},
		baseURL: ebayBaseURL,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
	}
}

// FetchPrice searches listings for the entry and averages the parsed prices.
// Graded entries only match listings that mention the grade; ungraded entries
// exclude listings that mention grading services.
func (s *EbayPriceSource) FetchPrice(ctx context.Context, entry models.Entry) (float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter wait: %w", err)
	}

	ungraded := strings.EqualFold(entry.Grade, models.GradeUngraded) || entry.Grade == ""

	var searchQuery string
	if ungraded {
		searchQuery = fmt.Sprintf("%s %s %s -graded -psa -bgs -cgc", entry.Name, entry.ID, entry.Edition)
	} else {
		searchQuery = fmt.Sprintf("%s %s %s grade:%s", entry.Name, entry.ID, entry.Edition, entry.Grade)
	}

	params := url.Values{}
	params.Set("_nkw", searchQuery)
	params.Set("_ipg", "100")
	params.Set("_sop", "13")

	reqURL := fmt.Sprintf("%s?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("listing search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to parse listings: %w", err)
	}

	prices := extractListingPrices(doc, entry.Grade, ungraded)
	if len(prices) == 0 {
		return 0, fmt.Errorf("no market price found for %s (grade %s)", entry.Name, entry.Grade)
	}

	return averagePrice(prices), nil
}

func extractListingPrices(doc *goquery.Document, grade string, ungraded bool) []float64 {
	var prices []float64
	gradeLower := strings.ToLower(grade)

	doc.Find(".s-item__wrapper").Each(func(i int, sel *goquery.Selection) {
		title := strings.ToLower(sel.Find(".s-item__title").Text())
		priceText := sel.Find(".s-item__price").Text()

		if ungraded {
			// Graded listings skew the average for raw cards.
			if strings.Contains(title, "graded") || strings.Contains(title, "psa") ||
				strings.Contains(title, "bgs") || strings.Contains(title, "cgc") {
				return
			}
		} else if !strings.Contains(title, gradeLower) {
			return
		}

		if price := parsePrice(priceText); price > 0 {
			prices = append(prices, price)
		}
	})

	return prices
}

func parsePrice(priceText string) float64 {
	priceText = strings.ReplaceAll(priceText, "$", "")
	priceText = strings.ReplaceAll(priceText, ",", "")
	priceText = strings.TrimSpace(priceText)

	// Ranged listings look like "12.00 to 15.00"; use the low end.
	if idx := strings.Index(priceText, " to "); idx >= 0 {
		priceText = priceText[:idx]
	}

	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil {
		return 0
	}
	return price
}

func averagePrice(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var total float64
	for _, p := range prices {
		total += p
	}
	return total / float64(len(prices))
}
