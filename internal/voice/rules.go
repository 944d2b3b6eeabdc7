package voice

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"example.com/companion/internal/domain"
)

// rule pairs an intent with its trigger phrases and parameter extractor.
// Rules are evaluated in order; the first match wins, which keeps precedence
// explicit instead of buried in fallthrough string checks.
type rule struct {
	intent   domain.Intent
	triggers []string
	extract  func(raw, trigger string) map[string]string
}

// ruleSet is the authoritative intent precedence table. start_workout sits
// before create_task so "start a workout" never classifies as task creation.
var ruleSet = []rule{
	{
		intent:   domain.IntentStartWorkout,
		triggers: []string{"start workout", "start a workout", "begin workout", "start exercise", "lets exercise"},
		extract:  extractWorkout,
	},
	{
		intent:   domain.IntentCreateTask,
		triggers: []string{"create task", "add task", "new task", "remind me to", "add a task"},
		extract:  extractTrailing("description", "New task"),
	},
	{
		intent:   domain.IntentCreateEvent,
		triggers: []string{"create event", "add event", "new event", "schedule", "add to calendar"},
		extract:  extractTrailing("description", "New event"),
	},
	{
		intent:   domain.IntentCheckStatus,
		triggers: []string{"status", "how are we doing", "whats pending", "check progress", "family status"},
		extract:  func(string, string) map[string]string { return nil },
	},
}

// classify runs the utterance through the rule table. Unmatched input falls
// back to general_query so the UI always has something to speak back.
func classify(raw string) (domain.Intent, map[string]string, bool) {
	normalized := normalize(raw)
	for _, r := range ruleSet {
		for _, trigger := range r.triggers {
			if fuzzyContains(normalized, trigger) {
				return r.intent, r.extract(normalized, trigger), true
			}
		}
	}
	return domain.IntentGeneralQuery, nil, false
}

func normalize(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			// Punctuation never carries intent in short utterances.
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// fuzzyContains reports whether the trigger phrase appears in the utterance,
// tolerating one edit per word of four letters or more so near-miss
// transcriptions ("creat task") still classify.
func fuzzyContains(utterance, trigger string) bool {
	words := strings.Fields(utterance)
	phrase := strings.Fields(trigger)
	if len(phrase) == 0 || len(words) < len(phrase) {
		return false
	}

	for start := 0; start+len(phrase) <= len(words); start++ {
		matched := true
		for i, want := range phrase {
			if !wordMatches(words[start+i], want) {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

func wordMatches(got, want string) bool {
	if got == want {
		return true
	}
	if len(want) < 4 {
		return false
	}
	return levenshtein.ComputeDistance(got, want) <= 1
}

// extractTrailing captures everything after the trigger phrase as the named
// parameter, defaulting when capture fails.
func extractTrailing(key, fallback string) func(raw, trigger string) map[string]string {
	return func(raw, trigger string) map[string]string {
		value := trailingText(raw, trigger)
		if value == "" {
			value = fallback
		}
		return map[string]string{key: value}
	}
}

func extractWorkout(raw, _ string) map[string]string {
	params := map[string]string{"goal_kind": string(domain.GoalExercise)}
	switch {
	case strings.Contains(raw, "step") || strings.Contains(raw, "walk"):
		params["goal_kind"] = string(domain.GoalSteps)
	case strings.Contains(raw, "family"):
		params["goal_kind"] = string(domain.GoalFamilyTime)
	}
	if member := memberFrom(raw); member != "" {
		params["member"] = member
	}
	return params
}

// trailingText returns the words after the (possibly fuzzy-matched) trigger
// phrase, stripping a leading connective.
func trailingText(raw, trigger string) string {
	words := strings.Fields(raw)
	phrase := strings.Fields(trigger)

	for start := 0; start+len(phrase) <= len(words); start++ {
		matched := true
		for i, want := range phrase {
			if !wordMatches(words[start+i], want) {
				matched = false
				break
			}
		}
		if matched {
			rest := words[start+len(phrase):]
			for len(rest) > 0 && isConnective(rest[0]) {
				rest = rest[1:]
			}
			return strings.Join(rest, " ")
		}
	}
	return ""
}

func isConnective(word string) bool {
	switch word {
	case "to", "a", "an", "the", "for", "about":
		return true
	}
	return false
}

// memberFrom pulls the word following "for" as a member name, e.g.
// "start workout for emma".
func memberFrom(rest string) string {
	words := strings.Fields(rest)
	for i, word := range words {
		if word == "for" && i+1 < len(words) {
			return words[i+1]
		}
	}
	return ""
}
