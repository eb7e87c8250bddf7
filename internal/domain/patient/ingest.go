package patient

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mchtrack/mchtrack/internal/platform/inference"
)

// Dataset selects which patient kind a CSV upload contains.
type Dataset string

const (
	DatasetMaternal  Dataset = "maternal"
	DatasetPediatric Dataset = "pediatric"
)

// IngestSummary reports the outcome of a CSV upload. Errors carries at most
// the first ten row failures.
type IngestSummary struct {
	Success          bool     `json:"success"`
	RecordsProcessed int      `json:"recordsProcessed"`
	RecordsSuccess   int      `json:"recordsSuccess"`
	RecordsFailed    int      `json:"recordsFailed"`
	Errors           []string `json:"errors,omitempty"`
}

const maxReportedErrors = 10

// IngestCSV parses and stores a patient dataset. Row failures are recorded
// and skipped; only an unreadable payload fails the whole ingest. After the
// rows are stored the derived-data pass runs; its failures are logged and
// never surfaced.
func (s *Service) IngestCSV(ctx context.Context, dataset Dataset, r io.Reader) (IngestSummary, error) {
	rows, err := parseCSV(r)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("parsing CSV: %w", err)
	}

	var summary IngestSummary
	summary.RecordsProcessed = len(rows)

	for _, row := range rows {
		var rowErr string
		switch dataset {
		case DatasetPediatric:
			rowErr = s.ingestPediatricRow(ctx, row)
		default:
			rowErr = s.ingestMaternalRow(ctx, row)
		}
		if rowErr != "" {
			summary.RecordsFailed++
			if len(summary.Errors) < maxReportedErrors {
				summary.Errors = append(summary.Errors, rowErr)
			}
			continue
		}
		summary.RecordsSuccess++
	}

	s.logger.Info().
		Str("dataset", string(dataset)).
		Int("processed", summary.RecordsProcessed).
		Int("success", summary.RecordsSuccess).
		Int("failed", summary.RecordsFailed).
		Msg("ingested patient records")

	if s.deriver != nil {
		if err := s.deriver.Generate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to generate policy/resource data")
		}
	}

	summary.Success = true
	return summary, nil
}

func (s *Service) ingestMaternalRow(ctx context.Context, row map[string]string) string {
	if row["patient_id"] == "" || row["name"] == "" || row["age"] == "" || row["risk_factors"] == "" {
		id := row["patient_id"]
		if id == "" {
			id = "unknown"
		}
		return fmt.Sprintf("Missing required fields for patient %s", id)
	}

	age, _ := strconv.Atoi(strings.TrimSpace(row["age"]))
	factors := splitFactors(row["risk_factors"])

	score, level := s.resolveRisk(ctx, row, func(ctx context.Context) (int, string) {
		assessment, err := s.predictor.PredictMaternalRisk(ctx, inference.MaternalObservation{
			Age:         age,
			RiskFactors: factors,
		})
		if err != nil {
			return 0, ""
		}
		return assessment.Score, assessment.Level
	})

	_, err := s.maternal.Upsert(ctx, Maternal{
		PatientID:   row["patient_id"],
		Name:        row["name"],
		Age:         age,
		RiskScore:   score,
		RiskLevel:   level,
		RiskFactors: factors,
		LastUpdated: parseLastUpdated(row["last_updated"]),
	})
	if err != nil {
		return fmt.Sprintf("Error processing patient %s: %v", row["patient_id"], err)
	}
	return ""
}

func (s *Service) ingestPediatricRow(ctx context.Context, row map[string]string) string {
	if row["child_id"] == "" || row["name"] == "" || row["risk_factors"] == "" {
		id := row["child_id"]
		if id == "" {
			id = "unknown"
		}
		return fmt.Sprintf("Missing required fields for child %s", id)
	}

	factors := splitFactors(row["risk_factors"])
	birthWeight, _ := strconv.ParseFloat(strings.TrimSpace(row["birth_weight"]), 64)
	gestation, _ := strconv.Atoi(strings.TrimSpace(row["gestation_weeks"]))

	score, level := s.resolveRisk(ctx, row, func(ctx context.Context) (int, string) {
		assessment, err := s.predictor.PredictPediatricRisk(ctx, inference.PediatricObservation{
			BirthWeight:    birthWeight,
			GestationWeeks: gestation,
			RiskFactors:    factors,
		})
		if err != nil {
			return 0, ""
		}
		return assessment.Score, assessment.Level
	})

	p := Pediatric{
		ChildID:     row["child_id"],
		Name:        row["name"],
		RiskScore:   score,
		RiskLevel:   level,
		RiskFactors: factors,
		LastUpdated: parseLastUpdated(row["last_updated"]),
	}
	if birthWeight > 0 {
		p.BirthWeight = strconv.FormatFloat(birthWeight, 'f', -1, 64)
	}
	if gestation > 0 {
		p.GestationWeeks = gestation
	}

	if _, err := s.pediatric.Upsert(ctx, p); err != nil {
		return fmt.Sprintf("Error processing child %s: %v", row["child_id"], err)
	}
	return ""
}

// resolveRisk takes the row's own score and level when both are present,
// otherwise asks the predictor. Provided values are trusted verbatim even
// when they disagree with what the predictor would compute; disagreement is
// the uploader's call, not ours.
func (s *Service) resolveRisk(ctx context.Context, row map[string]string, predict func(context.Context) (int, string)) (int, string) {
	rawScore := strings.TrimSpace(row["risk_score"])
	rawLevel := strings.TrimSpace(row["risk_level"])

	if rawScore != "" && rawLevel != "" {
		score, _ := strconv.Atoi(rawScore)
		level := normalizeLevel(rawLevel)
		if inferredLevel := inference.LevelForScore(score); inferredLevel != level {
			s.logger.Debug().
				Int("risk_score", score).
				Str("risk_level", level).
				Msg("uploaded risk level disagrees with score threshold")
		}
		return score, level
	}

	score, level := predict(ctx)
	if level == "" {
		level = "medium"
	}
	return score, level
}

func normalizeLevel(raw string) string {
	switch level := strings.ToLower(raw); level {
	case "low", "medium", "high", "critical":
		return level
	default:
		return "medium"
	}
}

func splitFactors(raw string) []string {
	var factors []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			factors = append(factors, f)
		}
	}
	return factors
}

func parseLastUpdated(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

// parseCSV reads the full payload into header-keyed rows. Headers are
// trimmed, lowercased, and spaces replaced with underscores so uploads with
// human-formatted headers still match.
func parseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := make(map[string]string, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
