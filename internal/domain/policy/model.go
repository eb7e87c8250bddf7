package policy

// Scenario is a stored policy scenario. ScenarioID is the natural key used
// on the API surface; ID is the internal record id.
type Scenario struct {
	ID                      string  `json:"id"`
	ScenarioID              string  `json:"scenarioId"`
	Name                    string  `json:"name"`
	Description             string  `json:"description"`
	MaternalMortalityChange float64 `json:"maternalMortalityChange"`
	InfantMortalityChange   float64 `json:"infantMortalityChange"`
	CostIncrease            float64 `json:"costIncrease"`
	ImplementationTime      string  `json:"implementationTime"`
}

// PredictedOutcomes is the nested dashboard representation of a scenario's
// impact.
type PredictedOutcomes struct {
	MaternalMortality  float64 `json:"maternalMortality"`
	InfantMortality    float64 `json:"infantMortality"`
	CostIncrease       float64 `json:"costIncrease"`
	ImplementationTime string  `json:"implementationTime"`
}

// ScenarioView is the dashboard-facing shape of a scenario.
type ScenarioView struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	PredictedOutcomes PredictedOutcomes `json:"predictedOutcomes"`
}

// View converts the stored scenario to its dashboard shape.
func (s Scenario) View() ScenarioView {
	return ScenarioView{
		ID:          s.ScenarioID,
		Name:        s.Name,
		Description: s.Description,
		PredictedOutcomes: PredictedOutcomes{
			MaternalMortality:  s.MaternalMortalityChange,
			InfantMortality:    s.InfantMortalityChange,
			CostIncrease:       s.CostIncrease,
			ImplementationTime: s.ImplementationTime,
		},
	}
}
