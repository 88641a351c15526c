package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Phase type for the three parts of a session plan
type Phase string

const (
	PhaseWarmup   Phase = "warmup"
	PhaseMain     Phase = "main"
	PhaseCooldown Phase = "cooldown"
)

// ValidPhase reports whether p is one of the three known phases.
func ValidPhase(p Phase) bool {
	return p == PhaseWarmup || p == PhaseMain || p == PhaseCooldown
}

// Metric names accepted by UpdateMetric. The set is closed on purpose:
// an open map would make validation intractable.
const (
	MetricSeries  = "series"
	MetricReps    = "reps"
	MetricRounds  = "rounds"
	MetricSeconds = "seconds"
	MetricMinutes = "minutes"
	MetricKcal    = "kcal"
)

// ExercisePrescription is one entry in a session's plan. It references an
// exercise from the catalog by ID only; catalog fields are never copied in.
// Unset metrics are absent (nil), not zero.
type ExercisePrescription struct {
	ID         string             `bson:"id" json:"id"` // uuid, local to the plan aggregate
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Phase      Phase              `bson:"phase" json:"phase"`
	Series     *int               `bson:"series,omitempty" json:"series,omitempty"`
	Reps       *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	Rounds     *int               `bson:"rounds,omitempty" json:"rounds,omitempty"`
	Seconds    *int               `bson:"seconds,omitempty" json:"seconds,omitempty"`
	Minutes    *int               `bson:"minutes,omitempty" json:"minutes,omitempty"`
	Kcal       *int               `bson:"kcal,omitempty" json:"kcal,omitempty"`
}

// SetMetric replaces a single metric value. Returns false for an unknown
// metric name. Numeric ranges are deliberately not validated here.
func (p *ExercisePrescription) SetMetric(name string, value int) bool {
	v := value
	switch name {
	case MetricSeries:
		p.Series = &v
	case MetricReps:
		p.Reps = &v
	case MetricRounds:
		p.Rounds = &v
	case MetricSeconds:
		p.Seconds = &v
	case MetricMinutes:
		p.Minutes = &v
	case MetricKcal:
		p.Kcal = &v
	default:
		return false
	}
	return true
}

// SessionPlan is the ordered prescription list (the WOD) for one session.
// Prescriptions are owned exclusively by this aggregate; reusing another
// session's plan copies entries, never shares them.
type SessionPlan struct {
	SessionID primitive.ObjectID     `bson:"_id" json:"sessionId"`
	Entries   []ExercisePrescription `bson:"entries" json:"entries"`
	SavedAt   time.Time              `bson:"savedAt" json:"savedAt"`
}

// HasExercise reports whether the plan already references the given exercise.
// Duplicate exercise entries are forbidden anywhere in the plan.
func (sp *SessionPlan) HasExercise(exerciseID primitive.ObjectID) bool {
	for i := range sp.Entries {
		if sp.Entries[i].ExerciseID == exerciseID {
			return true
		}
	}
	return false
}

// FindEntry returns the index of the prescription with the given id, or -1.
func (sp *SessionPlan) FindEntry(prescriptionID string) int {
	for i := range sp.Entries {
		if sp.Entries[i].ID == prescriptionID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the plan. Metric pointers are re-allocated so
// the copy shares no state with the original.
func (sp *SessionPlan) Clone() *SessionPlan {
	out := &SessionPlan{
		SessionID: sp.SessionID,
		SavedAt:   sp.SavedAt,
		Entries:   make([]ExercisePrescription, len(sp.Entries)),
	}
	for i, e := range sp.Entries {
		c := e
		c.Series = copyInt(e.Series)
		c.Reps = copyInt(e.Reps)
		c.Rounds = copyInt(e.Rounds)
		c.Seconds = copyInt(e.Seconds)
		c.Minutes = copyInt(e.Minutes)
		c.Kcal = copyInt(e.Kcal)
		out.Entries[i] = c
	}
	return out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// PlanView is the read side of a plan: entries grouped by phase, insertion
// order preserved within each phase. An empty view is a valid, renderable
// state ("not yet published"), never an error.
type PlanView struct {
	SessionID primitive.ObjectID     `json:"sessionId"`
	Warmup    []ExercisePrescription `json:"warmup"`
	Main      []ExercisePrescription `json:"main"`
	Cooldown  []ExercisePrescription `json:"cooldown"`
	SavedAt   time.Time              `json:"savedAt,omitempty"`
}

// Empty reports whether the view has no entries in any phase.
func (v *PlanView) Empty() bool {
	return len(v.Warmup) == 0 && len(v.Main) == 0 && len(v.Cooldown) == 0
}

// ViewOf groups a plan's entries by phase for display.
func ViewOf(plan *SessionPlan) *PlanView {
	view := &PlanView{SessionID: plan.SessionID, SavedAt: plan.SavedAt}
	for _, e := range plan.Entries {
		switch e.Phase {
		case PhaseWarmup:
			view.Warmup = append(view.Warmup, e)
		case PhaseCooldown:
			view.Cooldown = append(view.Cooldown, e)
		default:
			view.Main = append(view.Main, e)
		}
	}
	return view
}
