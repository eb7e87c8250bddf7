package patient

import "time"

// Maternal is a tracked maternal patient record.
type Maternal struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	RiskScore   int       `json:"riskScore"`
	RiskLevel   string    `json:"riskLevel"`
	RiskFactors []string  `json:"riskFactors"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Pediatric is a tracked pediatric patient record. BirthWeight is kept as a
// string: source data carries it verbatim and it is only parsed numerically
// during risk scoring.
type Pediatric struct {
	ID             string    `json:"id"`
	ChildID        string    `json:"childId"`
	Name           string    `json:"name"`
	BirthWeight    string    `json:"birthWeight,omitempty"`
	GestationWeeks int       `json:"gestationWeeks,omitempty"`
	RiskScore      int       `json:"riskScore"`
	RiskLevel      string    `json:"riskLevel"`
	RiskFactors    []string  `json:"riskFactors"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// HighRisk reports whether the record's level counts toward high-risk
// population statistics.
func (m Maternal) HighRisk() bool {
	return m.RiskLevel == "high" || m.RiskLevel == "critical"
}

func (p Pediatric) HighRisk() bool {
	return p.RiskLevel == "high" || p.RiskLevel == "critical"
}
