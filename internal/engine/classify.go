package engine

import (
	"fmt"

	"github.com/gyeh/claimengine/internal/model"
)

type ClassificationType string

const (
	ClassEvaluationManagement ClassificationType = "evaluation_management"
	ClassProcedural           ClassificationType = "procedural"
	ClassUnknown              ClassificationType = "unknown"
)

type Classification struct {
	Type       ClassificationType
	Confidence int
	Reason     string
}

// validPOS lists the CMS place-of-service codes accepted for each
// encounter type.
var validPOS = map[model.EncounterType][]string{
	model.EncounterOfficeVisit:  {"11", "12", "19", "22"},
	model.EncounterConsultation: {"11", "19", "21", "22"},
	model.EncounterTelehealth:   {"02", "10"},
	model.EncounterEmergency:    {"23"},
	model.EncounterSurgery:      {"21", "22", "24"},
	model.EncounterProcedure:    {"11", "19", "22", "24"},
}

var telehealthPOS = []string{"02", "10"}

func isTelehealthPOS(pos string) bool {
	return contains(telehealthPOS, pos)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ClassifyService decides whether the encounter bills as an E/M visit or a
// procedure. pos must already be normalized to two digits.
func ClassifyService(t model.EncounterType, pos string, hasProcedureCode bool) Classification {
	allowed, known := validPOS[t]
	if !known {
		return Classification{
			Type:   ClassUnknown,
			Reason: fmt.Sprintf("unrecognized encounter type %q", t),
		}
	}
	if !contains(allowed, pos) {
		return Classification{
			Type:   ClassUnknown,
			Reason: fmt.Sprintf("place of service %q is not valid for %s", pos, t),
		}
	}

	switch {
	case !t.IsEvaluationManagement():
		return Classification{Type: ClassProcedural, Confidence: 95, Reason: fmt.Sprintf("%s encounter", t)}
	case hasProcedureCode:
		return Classification{Type: ClassProcedural, Confidence: 90, Reason: fmt.Sprintf("%s with coded procedure", t)}
	default:
		return Classification{Type: ClassEvaluationManagement, Confidence: 95, Reason: fmt.Sprintf("%s at place of service %s", t, pos)}
	}
}
