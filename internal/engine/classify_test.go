package engine

import (
	"testing"

	"github.com/gyeh/claimengine/internal/model"
)

func TestClassifyService(t *testing.T) {
	tests := []struct {
		name    string
		typ     model.EncounterType
		pos     string
		hasCode bool
		want    ClassificationType
		conf    int
	}{
		{"office visit", model.EncounterOfficeVisit, "11", false, ClassEvaluationManagement, 95},
		{"office visit with coded procedure", model.EncounterOfficeVisit, "11", true, ClassProcedural, 90},
		{"consultation inpatient", model.EncounterConsultation, "21", false, ClassEvaluationManagement, 95},
		{"telehealth home", model.EncounterTelehealth, "10", false, ClassEvaluationManagement, 95},
		{"emergency", model.EncounterEmergency, "23", false, ClassEvaluationManagement, 95},
		{"surgery outpatient hospital", model.EncounterSurgery, "22", false, ClassProcedural, 95},
		{"procedure in office", model.EncounterProcedure, "11", true, ClassProcedural, 95},
		{"office visit in ED", model.EncounterOfficeVisit, "23", false, ClassUnknown, 0},
		{"telehealth in office", model.EncounterTelehealth, "11", false, ClassUnknown, 0},
		{"surgery in office", model.EncounterSurgery, "11", false, ClassUnknown, 0},
		{"unknown type", model.EncounterType("house_call"), "12", false, ClassUnknown, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyService(tt.typ, tt.pos, tt.hasCode)
			if got.Type != tt.want || got.Confidence != tt.conf {
				t.Errorf("got %s/%d, want %s/%d (%s)", got.Type, got.Confidence, tt.want, tt.conf, got.Reason)
			}
			if got.Reason == "" {
				t.Error("expected a reason")
			}
		})
	}
}

func TestClassifyService_EveryTypeHasPOSSet(t *testing.T) {
	for _, et := range model.AllEncounterTypes {
		if len(validPOS[et]) == 0 {
			t.Errorf("%s has no valid place-of-service codes", et)
		}
	}
}
