package model

// EvaluationRequest is one encounter plus its documentation, as carried by a
// batch line or an HTTP request body.
type EvaluationRequest struct {
	Encounter     EncounterInput       `json:"encounter"`
	Documentation DocumentationQuality `json:"documentation"`
}
