package report

import (
	"bytes"
	"fmt"
	"strings"

	"fitstudio/roster-app/internal/domain"

	"github.com/phpdave11/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseNames maps catalog IDs to display names for rendering. The plan
// itself carries only references.
type ExerciseNames map[primitive.ObjectID]string

// BuildSessionReport renders a session's roster snapshot and last-saved plan
// into a PDF. It is a pure consumer: it tolerates an empty plan and triggers
// no mutation.
func BuildSessionReport(session *domain.Session, snapshot *domain.RosterSnapshot, plan *domain.PlanView, names ExerciseNames) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, session.Title)
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Starts: %s  |  Duration: %s  |  Capacity: %d",
		session.StartTime.Format("Mon 02 Jan 2006 15:04"), session.Duration, session.Capacity))
	pdf.Ln(12)

	writeRoster(pdf, snapshot)
	pdf.Ln(6)
	writePlan(pdf, plan, names)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRoster(pdf *gofpdf.Fpdf, snapshot *domain.RosterSnapshot) {
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Roster (%d/%d)", snapshot.Enrolled, snapshot.Capacity))
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 11)
	for _, e := range snapshot.Entries {
		if e.State == domain.StateCancelled {
			continue
		}
		pdf.Cell(0, 6, fmt.Sprintf("%s - %s", e.DisplayName, stateLabel(e.State)))
		pdf.Ln(6)
	}

	if len(snapshot.Waitlist) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, fmt.Sprintf("Waitlist: %d", len(snapshot.Waitlist)))
		pdf.Ln(6)
	}
}

func writePlan(pdf *gofpdf.Fpdf, plan *domain.PlanView, names ExerciseNames) {
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Workout of the Day")
	pdf.Ln(9)

	if plan == nil || plan.Empty() {
		pdf.SetFont("Arial", "I", 11)
		pdf.Cell(0, 6, "Plan not yet published")
		pdf.Ln(6)
		return
	}

	writePhase(pdf, "Warm-up", plan.Warmup, names)
	writePhase(pdf, "Main", plan.Main, names)
	writePhase(pdf, "Cool-down", plan.Cooldown, names)
}

func writePhase(pdf *gofpdf.Fpdf, title string, entries []domain.ExercisePrescription, names ExerciseNames) {
	if len(entries) == 0 {
		return
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, title)
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 11)
	for _, e := range entries {
		name := names[e.ExerciseID]
		if name == "" {
			name = e.ExerciseID.Hex()
		}
		line := name
		if metrics := metricLine(&e); metrics != "" {
			line += "  (" + metrics + ")"
		}
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(2)
}

// metricLine renders only the metrics that are actually set.
func metricLine(p *domain.ExercisePrescription) string {
	var parts []string
	add := func(label string, v *int) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s %d", label, *v))
		}
	}
	add("series", p.Series)
	add("reps", p.Reps)
	add("rounds", p.Rounds)
	add("sec", p.Seconds)
	add("min", p.Minutes)
	add("kcal", p.Kcal)
	return strings.Join(parts, ", ")
}

func stateLabel(state domain.EnrollmentState) string {
	switch state {
	case domain.StateBooked:
		return "Booked"
	case domain.StateWaitlisted:
		return "Waitlisted"
	case domain.StateAttended:
		return "Attended"
	case domain.StateWalkIn:
		return "Walk-in"
	default:
		return string(state)
	}
}

// BuildCheckInPass renders a one-page pass for a single enrollment with a
// scannable QR code carrying the signed payload.
func BuildCheckInPass(session *domain.Session, enrollment *domain.Enrollment, qrPayload string) ([]byte, error) {
	qrPNG, err := qrcode.Encode(qrPayload, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Class Check-in Pass")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Class: %s", session.Title))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Starts: %s", session.StartTime.Format("Mon 02 Jan 2006 15:04")))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Name: %s", enrollment.DisplayName))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{
		ImageType: "PNG",
	}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
