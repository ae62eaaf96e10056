// ABOUTME: Two-source contact identity resolution
// ABOUTME: Pairs address-book and export records into MatchResults with confidence grades
package match

import (
	"github.com/harperreed/nudge/models"
	"github.com/harperreed/nudge/normalize"
)

// Match reasons reported on results.
const (
	ReasonEmail       = "email"
	ReasonNameCompany = "name+company"
	ReasonNameOnly    = "name"
)

// keyed carries one side-B record with its precomputed normalized fields and
// original position.
type keyed struct {
	rec     *models.SourceRecord
	idx     int
	name    string
	email   string
	company string
}

// Match resolves records from source A (address book) against source B
// (secondary export). Every input record lands in exactly one result, and
// the assignment is deterministic for a fixed input order.
//
// Pass order: email (High), then name+company (High), then name-only
// (Medium). Leftovers on either side become unmatched None results.
func Match(a, b []models.SourceRecord) []models.MatchResult {
	byEmail := make(map[string][]*keyed)
	byNameCompany := make(map[[2]string][]*keyed)
	byName := make(map[string][]*keyed)

	bKeyed := make([]*keyed, len(b))
	for i := range b {
		k := &keyed{
			rec:     &b[i],
			idx:     i,
			name:    normalize.Name(b[i].Name),
			email:   normalize.Email(b[i].Email),
			company: normalize.Company(b[i].Company),
		}
		bKeyed[i] = k

		if k.email != "" {
			byEmail[k.email] = append(byEmail[k.email], k)
		}
		if k.name != "" {
			byName[k.name] = append(byName[k.name], k)
			if k.company != "" {
				key := [2]string{k.name, k.company}
				byNameCompany[key] = append(byNameCompany[key], k)
			}
		}
	}

	used := make(map[int]bool, len(b))
	results := make([]models.MatchResult, 0, len(a)+len(b))

	for i := range a {
		rec := &a[i]
		name := normalize.Name(rec.Name)
		email := normalize.Email(rec.Email)
		company := normalize.Company(rec.Company)

		// Pass 1: email. Unique enough that first match wins; if several B
		// records share the email, prefer one that also agrees on name.
		if email != "" {
			if k := pickEmail(byEmail[email], used, name); k != nil {
				used[k.idx] = true
				results = append(results, models.MatchResult{
					A: rec, B: k.rec,
					Confidence: models.ConfidenceHigh,
					Reason:     ReasonEmail,
				})
				continue
			}
		}

		// Pass 2: name + company, two independent signals agreeing.
		if name != "" && company != "" {
			if k := pickFirst(byNameCompany[[2]string{name, company}], used); k != nil {
				used[k.idx] = true
				results = append(results, models.MatchResult{
					A: rec, B: k.rec,
					Confidence: models.ConfidenceHigh,
					Reason:     ReasonNameCompany,
				})
				continue
			}
		}

		// Pass 3: name only. Two equally plausible candidates is an
		// ambiguous match: take the earliest-listed and flag for review.
		if name != "" {
			candidates := available(byName[name], used)
			if len(candidates) > 0 {
				k := candidates[0]
				used[k.idx] = true
				results = append(results, models.MatchResult{
					A: rec, B: k.rec,
					Confidence:   models.ConfidenceMedium,
					Reason:       ReasonNameOnly,
					ManualReview: len(candidates) > 1,
				})
				continue
			}
		}

		// No usable signal matched; the record is still emitted.
		results = append(results, models.MatchResult{
			A:          rec,
			Confidence: models.ConfidenceNone,
		})
	}

	for _, k := range bKeyed {
		if !used[k.idx] {
			results = append(results, models.MatchResult{
				B:          k.rec,
				Confidence: models.ConfidenceNone,
			})
		}
	}

	return results
}

// pickEmail selects among same-email candidates, preferring one whose
// normalized name also agrees, falling back to the earliest-listed.
func pickEmail(candidates []*keyed, used map[int]bool, name string) *keyed {
	free := available(candidates, used)
	if len(free) == 0 {
		return nil
	}
	if name != "" {
		for _, k := range free {
			if k.name == name {
				return k
			}
		}
	}
	return free[0]
}

func pickFirst(candidates []*keyed, used map[int]bool) *keyed {
	free := available(candidates, used)
	if len(free) == 0 {
		return nil
	}
	return free[0]
}

// available filters out already-claimed candidates, preserving listing order.
func available(candidates []*keyed, used map[int]bool) []*keyed {
	var free []*keyed
	for _, k := range candidates {
		if !used[k.idx] {
			free = append(free, k)
		}
	}
	return free
}
