package validation

import (
	"sort"
	"time"

	"clementus360/behavior-intel/types"
)

// eligibleUsers returns users active inside the eligibility window with
// enough sessions, intersected with the pattern's scope. The result is
// sorted so shuffling is the only source of assignment randomness.
func (s *System) eligibleUsers(pattern types.DiscoveredPattern) ([]string, error) {
	since := time.Now().AddDate(0, 0, -s.cfg.EligibilityWindowDays)
	sessions, err := s.store.SessionsSince("", since, eligibilityScanCap)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]types.ResearchSession)
	for _, sess := range sessions {
		byUser[sess.UserID] = append(byUser[sess.UserID], sess)
	}

	var eligible []string
	for userID, userSessions := range byUser {
		if len(userSessions) < s.cfg.MinSessionsPerUser {
			continue
		}
		if !inScope(pattern.Scope, userID, userSessions) {
			continue
		}
		eligible = append(eligible, userID)
	}
	sort.Strings(eligible)

	return eligible, nil
}

// inScope checks every scope dimension: the user-id list directly, and the
// industry/role lists against the user's recent sessions.
func inScope(scope types.PatternScope, userID string, sessions []types.ResearchSession) bool {
	if !scope.AppliesTo(userID) {
		return false
	}
	if len(scope.Industries) > 0 && !anySessionMatches(sessions, scope.Industries, industryOf) {
		return false
	}
	if len(scope.Roles) > 0 && !anySessionMatches(sessions, scope.Roles, roleOf) {
		return false
	}
	return true
}

func industryOf(s types.ResearchSession) string { return s.SubjectIndustry }
func roleOf(s types.ResearchSession) string     { return s.SubjectSeniority }

func anySessionMatches(sessions []types.ResearchSession, values []string, attr func(types.ResearchSession) string) bool {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	for _, s := range sessions {
		if allowed[attr(s)] {
			return true
		}
	}
	return false
}
