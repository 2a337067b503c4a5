package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"travelplanner/config"
)

const (
	attractionType         = "风景名胜"
	attractionNoData       = "景点信息暂不可用"
	attractionUnreachable  = "景点信息获取失败"
	maxDescriptionRunes    = 100
	descriptionContinuator = "..."
)

// AttractionClient queries the juhe.cn scenic-spot API.
type AttractionClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	timeout    time.Duration
	httpClient *http.Client
	log        *logrus.Entry
	metrics    *Metrics
}

func NewAttractionClient(cfg config.AttractionConfig, log *logrus.Logger, metrics *Metrics) *AttractionClient {
	return &AttractionClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.URL,
		maxResults: cfg.MaxResults,
		timeout:    cfg.Timeout(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		log:     log.WithField("source", "attractions"),
		metrics: metrics,
	}
}

type juheScenicResponse struct {
	ErrorCode int    `json:"error_code"`
	Reason    string `json:"reason"`
	Result    *struct {
		List []struct {
			Name     string `json:"name"`
			Province string `json:"province"`
			City     string `json:"city"`
			Content  string `json:"content"`
		} `json:"list"`
	} `json:"result"`
}

// GetAttractions returns scenic spots for city, or a one-element sentinel list.
func (c *AttractionClient) GetAttractions(ctx context.Context, city string) []Attraction {
	return c.Lookup(ctx, city).Attractions
}

// Lookup never fails; errors become a degraded result with one sentinel entry.
func (c *AttractionClient) Lookup(ctx context.Context, city string) AttractionResult {
	resp, err := c.fetch(ctx, city)
	if err != nil {
		c.log.WithField("city", city).Warnf("attraction request failed: %v", err)
		c.metrics.upstreamOutcome("attractions", outcomeDegraded)
		return AttractionResult{
			Attractions: []Attraction{{Name: attractionUnreachable}},
			Degraded:    true,
			Reason:      err.Error(),
		}
	}

	attractions := c.parseScenic(resp)
	if len(attractions) == 0 {
		reason := fmt.Sprintf("no attractions (error_code=%d %s)", resp.ErrorCode, resp.Reason)
		c.log.WithField("city", city).Warn(reason)
		c.metrics.upstreamOutcome("attractions", outcomeDegraded)
		return AttractionResult{
			Attractions: []Attraction{{Name: attractionNoData}},
			Degraded:    true,
			Reason:      reason,
		}
	}

	c.metrics.upstreamOutcome("attractions", outcomeOK)
	return AttractionResult{Attractions: attractions}
}

func (c *AttractionClient) fetch(ctx context.Context, city string) (*juheScenicResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("word", city)
	q.Set("city", city)
	q.Set("num", strconv.Itoa(c.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read scenic response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("scenic API error (%d): %s", resp.StatusCode, string(body))
	}

	var out juheScenicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse scenic response: %w", err)
	}
	return &out, nil
}

func (c *AttractionClient) parseScenic(resp *juheScenicResponse) []Attraction {
	if resp.ErrorCode != 0 || resp.Result == nil {
		return nil
	}

	list := resp.Result.List
	// The provider treats num as a hint.
	if len(list) > c.maxResults {
		list = list[:c.maxResults]
	}

	attractions := make([]Attraction, 0, len(list))
	for _, s := range list {
		attractions = append(attractions, Attraction{
			Name:        s.Name,
			Address:     s.Province + s.City,
			Type:        attractionType,
			Description: summarize(s.Content),
		})
	}
	return attractions
}

// summarize strips markup from a scenic description and cuts it to
// maxDescriptionRunes runes, marking the cut with "...".
func summarize(content string) string {
	if content == "" {
		return ""
	}

	text := stripMarkup(content)

	runes := []rune(text)
	if len(runes) > maxDescriptionRunes {
		return string(runes[:maxDescriptionRunes]) + descriptionContinuator
	}
	return text
}

var lineBreaks = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ")

func stripMarkup(content string) string {
	text := lineBreaks.Replace(content)
	if strings.ContainsAny(text, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}
	return strings.ReplaceAll(text, "    ", " ")
}
