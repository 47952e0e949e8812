// Package prompts renders the natural-language prompts sent to the
// generation service. Every function is pure string formatting: no
// validation, no I/O.
package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nyashahama/diabetes-risk-planner/internal/classifier"
	"github.com/nyashahama/diabetes-risk-planner/internal/features"
)

// maxWords bounds free-form answers to keep generation cost and latency down.
const maxWords = 200

// Diet asks for a diet plan. It embeds the glucose and BMI readings.
func Diet(p features.Profile, risk classifier.RiskLabel) string {
	return fmt.Sprintf(
		"Create a personalized diet plan for %s, a %s aged %d with Glucose %s, BMI %s, Risk Level: %s.",
		p.Name, p.Gender, p.Vector.Age,
		num(p.Vector.Glucose), num(p.Vector.BMI),
		risk.Text(),
	)
}

// Workout asks for a workout plan. It embeds the blood pressure and BMI
// readings.
func Workout(p features.Profile, risk classifier.RiskLabel) string {
	return fmt.Sprintf(
		"Create a personalized workout plan for %s, a %s aged %d with BP %s, BMI %s, Risk Level: %s.",
		p.Name, p.Gender, p.Vector.Age,
		num(p.Vector.BloodPressure), num(p.Vector.BMI),
		risk.Text(),
	)
}

// Exercise asks how to perform an exercise.
func Exercise(term string) string {
	return fmt.Sprintf("Give 5 steps to do the exercise '%s' in bullet points under %d words.",
		strings.TrimSpace(term), maxWords)
}

// Food asks for the health benefits of a food.
func Food(term string) string {
	return fmt.Sprintf("List health benefits and uses of %s in under %d words using bullet points.",
		strings.TrimSpace(term), maxWords)
}

// Chat wraps a follow-up question asked on a plan page.
func Chat(query string) string {
	return fmt.Sprintf("Answer shortly, in under %d words: %s", maxWords, strings.TrimSpace(query))
}

// num formats a reading in its shortest exact form: 32.5, 90, 0.6.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
