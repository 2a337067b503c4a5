package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"travelplanner/config"
)

const (
	maxPromptAttractions = 8

	systemPrompt = "你是一位经验丰富的旅行规划专家,擅长根据天气、景点、用户偏好等信息制定详细的旅行计划。"
)

// ChatCompleter is the subset of *openai.Client the composer needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ItineraryInput is everything the composer turns into a prompt.
type ItineraryInput struct {
	Destination string
	Days        int
	Budget      string
	Weather     []WeatherDay
	Attractions []Attraction
	Interests   []string
	StartDate   string
}

// ItineraryComposer asks an OpenAI-compatible model for a Markdown plan and
// falls back to FallbackItinerary on any failure.
type ItineraryComposer struct {
	client      ChatCompleter
	configured  bool
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	limiter     *rate.Limiter
	log         *logrus.Entry
	metrics     *Metrics
}

func NewItineraryComposer(cfg config.LLMConfig, log *logrus.Logger, metrics *Metrics) *ItineraryComposer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = apiBaseURL(cfg.BaseURL)
	}

	var limiter *rate.Limiter
	if cfg.RPM > 0 {
		limiter = rateLimiterPerMinute(cfg.RPM)
	}

	entry := log.WithField("source", "llm")
	if cfg.APIKey == "" {
		entry.Warn("DEEPSEEK_API_KEY not set — itineraries will use the fallback plan")
	} else {
		entry.Infof("LLM initialized with model: %s", cfg.Model)
	}

	return &ItineraryComposer{
		client:      openai.NewClientWithConfig(clientCfg),
		configured:  cfg.APIKey != "",
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout(),
		limiter:     limiter,
		log:         entry,
		metrics:     metrics,
	}
}

// Compose returns the model's plan verbatim, or the fallback plan when the
// model cannot be reached or answers with nothing usable.
func (c *ItineraryComposer) Compose(ctx context.Context, in ItineraryInput) string {
	text, err := c.generate(ctx, in)
	if err != nil {
		c.log.WithField("destination", in.Destination).Warnf("LLM generation failed, using fallback plan: %v", err)
		c.metrics.upstreamOutcome("llm", outcomeFallback)
		return FallbackItinerary(in.Destination, in.Days, in.Weather, in.Attractions)
	}
	c.metrics.upstreamOutcome("llm", outcomeOK)
	return text
}

func (c *ItineraryComposer) generate(ctx context.Context, in ItineraryInput) (string, error) {
	if !c.configured {
		return "", errors.New("LLM API key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limited: %w", err)
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(in)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("LLM call timed out after %s: %w", c.timeout, err)
		}
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("LLM response has no choices")
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", errors.New("LLM response is empty")
	}
	return text, nil
}

// apiBaseURL accepts either the API root or the full chat completions
// endpoint; the client appends the endpoint path itself.
func apiBaseURL(raw string) string {
	u := strings.TrimRight(raw, "/")
	u = strings.TrimSuffix(u, "/chat/completions")
	return strings.TrimRight(u, "/")
}

func rateLimiterPerMinute(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
}

// BuildPrompt renders the user message sent to the model.
func BuildPrompt(in ItineraryInput) string {
	weather := in.Weather
	if in.Days >= 0 && len(weather) > in.Days {
		weather = weather[:in.Days]
	}
	weatherLines := make([]string, 0, len(weather))
	for _, w := range weather {
		weatherLines = append(weatherLines, fmt.Sprintf("- %s: 白天%s/%s, 夜间%s/%s, %s",
			w.Date, w.DayTemp, w.DayWeather, w.NightTemp, w.NightWeather, w.Wind))
	}

	attractions := in.Attractions
	if len(attractions) > maxPromptAttractions {
		attractions = attractions[:maxPromptAttractions]
	}
	attractionLines := make([]string, 0, len(attractions))
	for _, a := range attractions {
		attractionLines = append(attractionLines, fmt.Sprintf("- %s (%s): %s", a.Name, a.Type, a.Address))
	}

	interests := "常规观光"
	if len(in.Interests) > 0 {
		interests = strings.Join(in.Interests, "、")
	}

	startDate := "待定"
	if notBlank(in.StartDate) {
		startDate = in.StartDate
	}

	var b strings.Builder
	fmt.Fprintf(&b, "你是一位专业的旅行规划师。请为用户制定一份%s%d天旅行计划。\n\n", in.Destination, in.Days)
	b.WriteString("**用户需求:**\n")
	fmt.Fprintf(&b, "- 目的地: %s\n", in.Destination)
	fmt.Fprintf(&b, "- 旅行天数: %d天\n", in.Days)
	fmt.Fprintf(&b, "- 预算: %s\n", in.Budget)
	fmt.Fprintf(&b, "- 出发日期: %s\n", startDate)
	fmt.Fprintf(&b, "- 兴趣偏好: %s\n\n", interests)
	b.WriteString("**天气信息:**\n")
	b.WriteString(strings.Join(weatherLines, "\n"))
	b.WriteString("\n\n**推荐景点:**\n")
	b.WriteString(strings.Join(attractionLines, "\n"))
	b.WriteString("\n\n**要求:**\n")
	b.WriteString("1. 按天组织行程,每天包含上午、下午和晚上的具体活动\n")
	b.WriteString("2. 结合天气情况安排合适的活动(如雨天安排室内景点)\n")
	b.WriteString("3. 根据景点位置合理规划路线,减少往返\n")
	b.WriteString("4. 考虑用户的兴趣偏好,突出相关景点\n")
	b.WriteString("5. 包含实用建议(如交通方式、餐饮推荐、注意事项)\n")
	b.WriteString("6. 根据预算水平推荐合适的住宿和餐饮档次\n")
	b.WriteString("7. 使用Markdown格式,结构清晰,易于阅读\n")
	b.WriteString("8. 内容无需特别精细,但要求全面,计划尽量控制在500字以内\n\n")
	b.WriteString("请生成详细、实用且个性化的旅行规划。")
	return b.String()
}

func notBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
