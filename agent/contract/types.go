package contract

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleChef   Role = "chef"
	RoleCritic Role = "critic"
)

type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

type MealType string

const (
	Breakfast MealType = "BREAKFAST"
	Lunch     MealType = "LUNCH"
	Dinner    MealType = "DINNER"
)

const (
	DefaultDay      = Monday
	DefaultMealType = Dinner
	DefaultItemName = "Surprise Meal"
)

func AllDays() []DayOfWeek {
	return []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

func AllMealTypes() []MealType {
	return []MealType{Breakfast, Lunch, Dinner}
}

// ParseDay upper-cases s and reports whether it names a day of the week.
func ParseDay(s string) (DayOfWeek, bool) {
	d := DayOfWeek(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllDays() {
		if d == known {
			return d, true
		}
	}
	return "", false
}

func ParseMealType(s string) (MealType, bool) {
	m := MealType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllMealTypes() {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// MealSlot is the (day, meal type) coordinate of one meal in the week.
type MealSlot struct {
	Day  DayOfWeek `json:"dayOfWeek"`
	Meal MealType  `json:"mealType"`
}

func (s MealSlot) String() string {
	return string(s.Day) + " " + string(s.Meal)
}

type MealAssignment struct {
	Day      DayOfWeek `json:"dayOfWeek"`
	Meal     MealType  `json:"mealType"`
	ItemName string    `json:"itemName"`
}

func (a MealAssignment) Slot() MealSlot {
	return MealSlot{Day: a.Day, Meal: a.Meal}
}

// WeeklyPlan may hold fewer or more than 21 assignments; callers that need
// full coverage check MissingSlots.
type WeeklyPlan []MealAssignment

func (p WeeklyPlan) Clone() WeeklyPlan {
	if p == nil {
		return nil
	}
	return append(WeeklyPlan(nil), p...)
}

// Lines renders one "DAY MEALTYPE: ITEM" line per assignment.
func (p WeeklyPlan) Lines() []string {
	lines := make([]string, 0, len(p))
	for _, a := range p {
		lines = append(lines, fmt.Sprintf("%s %s: %s", a.Day, a.Meal, a.ItemName))
	}
	return lines
}

func (p WeeklyPlan) Table() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s | %-10s | %s\n", "DAY", "MEAL", "ITEM")
	b.WriteString(strings.Repeat("-", 40))
	b.WriteString("\n")
	for _, a := range p {
		fmt.Fprintf(&b, "%-10s | %-10s | %s\n", a.Day, a.Meal, a.ItemName)
	}
	return b.String()
}

func (p WeeklyPlan) MissingSlots() []MealSlot {
	seen := make(map[MealSlot]struct{}, len(p))
	for _, a := range p {
		seen[a.Slot()] = struct{}{}
	}
	var missing []MealSlot
	for _, d := range AllDays() {
		for _, m := range AllMealTypes() {
			slot := MealSlot{Day: d, Meal: m}
			if _, ok := seen[slot]; !ok {
				missing = append(missing, slot)
			}
		}
	}
	return missing
}

type Critique struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

type RecordMetadata struct {
	Day      DayOfWeek `json:"day"`
	MealType MealType  `json:"type"`
}

// MemoryRecord is one "User ate X for Y on Z" statement in the memory log.
type MemoryRecord struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Metadata  RecordMetadata `json:"metadata"`
	Embedding []float32      `json:"embedding,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type ScoredRecord struct {
	Record MemoryRecord `json:"record"`
	Score  float64      `json:"score"`
}

type OracleRequest struct {
	Prompt string
	Tools  []Tool
}

type GenerateRequest struct {
	MemoryContext string
	Feedback      string
	Attempt       int
}

type Outcome string

const (
	OutcomeAccepted  Outcome = "ACCEPTED"
	OutcomeExhausted Outcome = "EXHAUSTED"
)
