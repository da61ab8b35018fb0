package learning

import (
	"fmt"
	"strings"

	"clementus360/behavior-intel/types"
)

// Keyword groups matched against free-text rating comments. A hit tags the
// event with the group name so aggregation can see what users talk about.
var categoryKeywords = map[string][]string{
	"industry_focus":  {"industry", "sector", "vertical", "market"},
	"timing":          {"time", "timing", "hour", "schedule", "slow", "fast"},
	"data_quality":    {"wrong", "outdated", "stale", "accurate", "missing", "incorrect"},
	"relevance":       {"relevant", "irrelevant", "useful", "useless", "fit"},
	"contact_details": {"email", "phone", "linkedin", "contact"},
}

// ExtractInsightTags derives the tags specific to an event's interaction
// kind. Unknown kinds produce no tags, which keeps their confidence impact
// at zero.
func ExtractInsightTags(event types.InteractionEvent) []string {
	switch event.InteractionKind {
	case types.InteractionExplicitRating:
		return ratingTags(event)
	case types.InteractionImplicitBehavior:
		return behaviorTags(event)
	case types.InteractionContextualAction:
		return actionTags(event)
	case types.InteractionOutcomeReport:
		return outcomeTags(event)
	case types.InteractionPatternCorrection:
		return correctionTags(event)
	case types.InteractionPreferenceUpdate:
		return preferenceTags(event)
	default:
		return nil
	}
}

func ratingTags(event types.InteractionEvent) []string {
	var tags []string

	if rating, ok := payloadFloat(event.Payload, "rating"); ok {
		switch {
		case rating >= 7:
			tags = append(tags, "positive_rating")
		case rating <= 4:
			tags = append(tags, "negative_rating")
		default:
			tags = append(tags, "neutral_rating")
		}
	}

	comment := strings.ToLower(payloadString(event.Payload, "comment"))
	if comment != "" {
		for category, keywords := range categoryKeywords {
			for _, kw := range keywords {
				if strings.Contains(comment, kw) {
					tags = append(tags, "topic:"+category)
					break
				}
			}
		}
	}

	return tags
}

func behaviorTags(event types.InteractionEvent) []string {
	var tags []string

	if duration, ok := payloadFloat(event.Payload, "duration_seconds"); ok {
		if duration > 120 {
			tags = append(tags, "engaged_session")
		} else {
			tags = append(tags, "brief_session")
		}
	}
	if sections, ok := payloadFloat(event.Payload, "sections_viewed"); ok && sections >= 3 {
		tags = append(tags, "deep_exploration")
	}

	switch hour := event.CreatedAt.Hour(); {
	case hour >= 5 && hour < 12:
		tags = append(tags, "morning_activity")
	case hour >= 12 && hour < 17:
		tags = append(tags, "afternoon_activity")
	case hour >= 17 && hour < 22:
		tags = append(tags, "evening_activity")
	default:
		tags = append(tags, "night_activity")
	}

	return tags
}

func actionTags(event types.InteractionEvent) []string {
	if action := payloadString(event.Payload, "action"); action != "" {
		return []string{"action:" + action}
	}
	return []string{"contextual_action"}
}

func outcomeTags(event types.InteractionEvent) []string {
	var tags []string

	switch payloadString(event.Payload, "outcome") {
	case types.OutcomeContacted:
		tags = append(tags, "successful_contact")
		if responded, ok := event.Payload["response_received"].(bool); ok && responded {
			tags = append(tags, "received_response")
		}
	case types.OutcomeSkipped:
		tags = append(tags, "skipped_prospect")
		if reason := payloadString(event.Payload, "skip_reason"); reason != "" {
			tags = append(tags, "skip_reason:"+reason)
		}
	}

	return tags
}

func correctionTags(event types.InteractionEvent) []string {
	if kind := payloadString(event.Payload, "correction_type"); kind != "" {
		return []string{"correction:" + kind}
	}
	return []string{"pattern_corrected"}
}

func preferenceTags(event types.InteractionEvent) []string {
	if field := payloadString(event.Payload, "field"); field != "" {
		return []string{"preference_changed:" + field}
	}
	return []string{"preference_updated"}
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadFloat(payload map[string]interface{}, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
