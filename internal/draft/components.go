package draft

import (
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

// Time-of-day conditions a component option may carry.
const (
	ConditionMorning   = "time_of_day_morning"
	ConditionAfternoon = "time_of_day_afternoon"
	ConditionEvening   = "time_of_day_evening"
)

const recipientPlaceholder = "{{recipient_name}}"

var (
	placeholderWithSpaceRe = regexp.MustCompile(`\s*` + regexp.QuoteMeta(recipientPlaceholder))
	spaceBeforeCommaRe     = regexp.MustCompile(`\s+,`)
)

// ComponentResolver picks one option out of a communication component,
// honoring time-of-day conditions and substituting the recipient name.
// Clock and randomness are injectable for tests.
type ComponentResolver struct {
	now func() time.Time
	rng *rand.Rand
}

// NewComponentResolver builds a resolver on the wall clock.
func NewComponentResolver() *ComponentResolver {
	return &ComponentResolver{
		now: time.Now,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// TimeOfDay buckets an hour into the greeting conditions: morning from
// 05:00, afternoon from 13:00, evening from 20:00.
func TimeOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour >= 5 && hour < 13:
		return ConditionMorning
	case hour >= 13 && hour < 20:
		return ConditionAfternoon
	default:
		return ConditionEvening
	}
}

// Resolve picks a random option valid right now and substitutes the
// recipient's first name. A nil component or one without valid options
// resolves to "".
func (r *ComponentResolver) Resolve(component *models.Component, recipientName string) string {
	if component == nil {
		return ""
	}

	timeOfDay := TimeOfDay(r.now())
	valid := make([]models.ComponentOption, 0, len(component.Content))
	for _, opt := range component.Content {
		if opt.Text == "" {
			continue
		}
		if opt.Condition == "" || opt.Condition == timeOfDay {
			valid = append(valid, opt)
		}
	}
	if len(valid) == 0 {
		return ""
	}

	chosen := valid[r.rng.Intn(len(valid))]
	return substituteRecipient(chosen.Text, recipientName)
}

// substituteRecipient fills in the first name, or removes the placeholder
// cleanly when no name is known so "Bom dia {{recipient_name}}," becomes
// "Bom dia,".
func substituteRecipient(text, recipientName string) string {
	name := firstName(recipientName)
	if name == "" {
		text = placeholderWithSpaceRe.ReplaceAllString(text, "")
		return spaceBeforeCommaRe.ReplaceAllString(text, ",")
	}
	return strings.ReplaceAll(text, recipientPlaceholder, name)
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
