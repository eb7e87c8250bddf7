package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultModel   = "mistralai/Mistral-7B-Instruct-v0.2"
	DefaultBaseURL = "https://api-inference.huggingface.co"

	predictTimeout  = 8 * time.Second
	generateTimeout = 10 * time.Second
)

// HFClient calls the Hugging Face hosted inference API for risk
// predictions, population insights, and policy simulations.
type HFClient struct {
	apiKey  string
	model   string
	baseURL string
	httpc   *http.Client
	logger  zerolog.Logger
}

func NewHFClient(apiKey, model, baseURL string, logger zerolog.Logger) *HFClient {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HFClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: generateTimeout},
		logger:  logger.With().Str("component", "inference").Logger(),
	}
}

type generationParams struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p,omitempty"`
	ReturnFullText *bool   `json:"return_full_text,omitempty"`
}

type generationRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters generationParams `json:"parameters"`
}

func (c *HFClient) PredictMaternalRisk(ctx context.Context, obs MaternalObservation) (RiskAssessment, error) {
	var sb strings.Builder
	sb.WriteString("As a medical AI assistant, analyze the following maternal health data and provide a risk assessment:\n\n")
	sb.WriteString("Patient Data:\n")
	fmt.Fprintf(&sb, "- Age: %d years\n", obs.Age)
	fmt.Fprintf(&sb, "- Risk Factors: %s\n", strings.Join(obs.RiskFactors, ", "))
	if obs.Systolic > 0 {
		fmt.Fprintf(&sb, "- Blood Pressure: %.0f/%.0f mmHg\n", obs.Systolic, obs.Diastolic)
	}
	if obs.Weight > 0 {
		fmt.Fprintf(&sb, "- Weight: %.1f kg\n", obs.Weight)
	}
	sb.WriteString("\nPlease provide:\n")
	sb.WriteString("1. A risk score from 0-100\n")
	sb.WriteString("2. Risk level (low, medium, high, or critical)\n")
	sb.WriteString("3. Confidence level (0-1)\n")
	sb.WriteString("4. Brief explanation\n\n")
	sb.WriteString("Format: JSON with fields: riskScore, riskLevel, confidence, explanation")

	text, err := c.generate(ctx, sb.String(), predictTimeout, generationParams{
		MaxNewTokens:   500,
		Temperature:    0.7,
		TopP:           0.95,
		ReturnFullText: boolPtr(false),
	})
	if err != nil {
		return RiskAssessment{}, err
	}
	return parseRiskAssessment(text, len(obs.RiskFactors))
}

func (c *HFClient) PredictPediatricRisk(ctx context.Context, obs PediatricObservation) (RiskAssessment, error) {
	var sb strings.Builder
	sb.WriteString("As a pediatric medical AI assistant, analyze the following infant health data and provide a risk assessment:\n\n")
	sb.WriteString("Infant Data:\n")
	if obs.BirthWeight > 0 {
		fmt.Fprintf(&sb, "- Birth Weight: %.2f kg\n", obs.BirthWeight)
	}
	if obs.GestationWeeks > 0 {
		fmt.Fprintf(&sb, "- Gestation: %d weeks\n", obs.GestationWeeks)
	}
	fmt.Fprintf(&sb, "- Risk Factors: %s\n", strings.Join(obs.RiskFactors, ", "))
	sb.WriteString("\nPlease provide:\n")
	sb.WriteString("1. A risk score from 0-100\n")
	sb.WriteString("2. Risk level (low, medium, high, or critical)\n")
	sb.WriteString("3. Confidence level (0-1)\n")
	sb.WriteString("4. Brief explanation\n\n")
	sb.WriteString("Format: JSON with fields: riskScore, riskLevel, confidence, explanation")

	text, err := c.generate(ctx, sb.String(), predictTimeout, generationParams{
		MaxNewTokens:   500,
		Temperature:    0.7,
		TopP:           0.95,
		ReturnFullText: boolPtr(false),
	})
	if err != nil {
		return RiskAssessment{}, err
	}
	return parseRiskAssessment(text, len(obs.RiskFactors))
}

// GenerateInsights asks the model for five actionable population insights,
// falling back to templated ones when the call or parsing fails.
func (c *HFClient) GenerateInsights(ctx context.Context, snap PopulationSnapshot) []string {
	factors := make([]string, 0, len(snap.TopRiskFactors))
	for _, rf := range snap.TopRiskFactors {
		factors = append(factors, fmt.Sprintf("%s (%d)", rf.Factor, rf.Count))
	}

	var sb strings.Builder
	sb.WriteString("As a healthcare analytics AI, analyze the following population health data and provide 5 actionable insights:\n\n")
	sb.WriteString("Healthcare Data:\n")
	fmt.Fprintf(&sb, "- Total maternal patients: %d\n", snap.MaternalCount)
	fmt.Fprintf(&sb, "- Total pediatric patients: %d\n", snap.PediatricCount)
	fmt.Fprintf(&sb, "- High-risk patients: %d\n", snap.HighRiskCount)
	fmt.Fprintf(&sb, "- Top risk factors: %s\n", strings.Join(factors, ", "))
	sb.WriteString("\nProvide 5 specific, actionable insights about trends, concerns, or recommendations.\n")
	sb.WriteString("Format each insight as a single clear sentence.")

	text, err := c.generate(ctx, sb.String(), generateTimeout, generationParams{
		MaxNewTokens: 800,
		Temperature:  0.8,
		TopP:         0.95,
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("model unavailable, using fallback insights")
		return Heuristic{}.GenerateInsights(ctx, snap)
	}

	insights := parseInsights(text)
	if len(insights) == 0 {
		return Heuristic{}.GenerateInsights(ctx, snap)
	}
	return insights
}

// SimulatePolicy asks the model to predict a policy's impact. Always
// returns a usable impact, substituting defaults on any failure.
func (c *HFClient) SimulatePolicy(ctx context.Context, in PolicyInput) PolicyImpact {
	var sb strings.Builder
	sb.WriteString("As a public health policy AI analyst, simulate the impact of the following healthcare policy:\n\n")
	fmt.Fprintf(&sb, "Policy: %s\n", in.Name)
	fmt.Fprintf(&sb, "Description: %s\n", in.Description)
	fmt.Fprintf(&sb, "Target Population: %d patients\n", in.TargetPopulation)
	sb.WriteString("\nPredict:\n")
	sb.WriteString("1. Maternal mortality change (percentage, negative means reduction)\n")
	sb.WriteString("2. Infant mortality change (percentage, negative means reduction)\n")
	sb.WriteString("3. Cost increase (percentage)\n")
	sb.WriteString("4. Confidence level (0-1)\n\n")
	sb.WriteString("Format: JSON with fields: maternalMortalityChange, infantMortalityChange, costIncrease, confidence")

	text, err := c.generate(ctx, sb.String(), generateTimeout, generationParams{
		MaxNewTokens: 400,
		Temperature:  0.7,
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("model unavailable, using default policy impact")
		return defaultPolicyImpact()
	}
	return parsePolicyImpact(text)
}

func (c *HFClient) generate(ctx context.Context, prompt string, timeout time.Duration, params generationParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(generationRequest{Inputs: prompt, Parameters: params})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling inference API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	// The API returns either a list of generations or a single object.
	var list []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return list[0].GeneratedText, nil
	}
	var single struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}
	return "", fmt.Errorf("unexpected inference response: %s", strings.TrimSpace(string(data)))
}

var jsonObjectRe = regexp.MustCompile(`\{[^{}]*\}`)

// parseRiskAssessment extracts the first flat JSON object from the model
// output. Missing or out-of-range fields fall back to computed values.
func parseRiskAssessment(text string, factorCount int) (RiskAssessment, error) {
	match := jsonObjectRe.FindString(text)
	if match == "" {
		return RiskAssessment{}, fmt.Errorf("no JSON object in model output")
	}

	var parsed struct {
		RiskScore   float64 `json:"riskScore"`
		RiskLevel   string  `json:"riskLevel"`
		Confidence  float64 `json:"confidence"`
		Explanation string  `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return RiskAssessment{}, fmt.Errorf("parsing model output: %w", err)
	}

	score := int(math.Round(parsed.RiskScore))
	if score <= 0 || score > 100 {
		if factorCount == 0 {
			factorCount = 1
		}
		score = factorCount*15 + 25
	}

	level := strings.ToLower(strings.TrimSpace(parsed.RiskLevel))
	switch level {
	case "low", "medium", "high", "critical":
	default:
		level = LevelForScore(score)
	}

	confidence := parsed.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.75
	}

	explanation := parsed.Explanation
	if explanation == "" {
		if len(text) > 200 {
			text = text[:200]
		}
		explanation = text
	}

	return RiskAssessment{
		Score:       score,
		Level:       level,
		Confidence:  confidence,
		Explanation: explanation,
	}, nil
}

var (
	numberedPrefixRe = regexp.MustCompile(`^\d+[.)]\s*`)
	bulletPrefixRe   = regexp.MustCompile(`^[-•]\s*`)
)

func parseInsights(text string) []string {
	var insights []string
	for _, line := range strings.Split(text, "\n") {
		cleaned := strings.TrimSpace(line)
		cleaned = numberedPrefixRe.ReplaceAllString(cleaned, "")
		cleaned = bulletPrefixRe.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
		if len(cleaned) > 20 && len(cleaned) < 300 {
			insights = append(insights, cleaned)
		}
		if len(insights) == 5 {
			break
		}
	}
	return insights
}

func parsePolicyImpact(text string) PolicyImpact {
	match := jsonObjectRe.FindString(text)
	if match == "" {
		return defaultPolicyImpact()
	}

	var parsed PolicyImpact
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return defaultPolicyImpact()
	}

	def := defaultPolicyImpact()
	if parsed.MaternalMortalityChange == 0 {
		parsed.MaternalMortalityChange = def.MaternalMortalityChange
	}
	if parsed.InfantMortalityChange == 0 {
		parsed.InfantMortalityChange = def.InfantMortalityChange
	}
	if parsed.CostIncrease == 0 {
		parsed.CostIncrease = def.CostIncrease
	}
	if parsed.Confidence == 0 {
		parsed.Confidence = def.Confidence
	}
	return parsed
}

func boolPtr(b bool) *bool { return &b }
