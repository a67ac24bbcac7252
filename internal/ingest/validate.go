package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/seasonscope/internal/model"
	"github.com/sells-group/seasonscope/internal/store"
)

// CheckStatus grades a single validation check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
	StatusInfo CheckStatus = "info"
)

// Check is one line of the post-ingest validation report.
type Check struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
}

// ValidationReport aggregates the checks run against a populated store.
type ValidationReport struct {
	Checks []Check `json:"checks"`
}

// Failed reports whether any check has failing status.
func (r *ValidationReport) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

func (r *ValidationReport) add(name string, status CheckStatus, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Message: fmt.Sprintf(format, args...)})
}

// Validate runs the data-quality checks over a populated store. Broken
// citations and range-ordering violations fail; coverage gaps warn.
func Validate(ctx context.Context, st store.Store) (*ValidationReport, error) {
	foods, err := st.ListFoods(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := st.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	factors, err := st.ListFactors(ctx)
	if err != nil {
		return nil, err
	}
	seasonality, err := st.ListSeasonality(ctx)
	if err != nil {
		return nil, err
	}
	origins, err := st.ListOrigins(ctx)
	if err != nil {
		return nil, err
	}
	waterRisks, err := st.ListWaterRisks(ctx)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{}
	sourceIDs := make(map[string]bool, len(sources))
	for _, s := range sources {
		sourceIDs[s.ID] = true
	}

	if len(foods) == 0 {
		report.add("food_count", StatusFail, "no foods in catalog")
	} else {
		report.add("food_count", StatusPass, "%d foods in catalog", len(foods))
	}

	factorsByFood := make(map[string]int)
	for _, f := range factors {
		factorsByFood[f.FoodID]++
	}
	var missingGhg []string
	for _, f := range foods {
		if factorsByFood[f.ID] == 0 {
			missingGhg = append(missingGhg, f.ID)
		}
	}
	if len(missingGhg) > 0 {
		sort.Strings(missingGhg)
		report.add("ghg_coverage", StatusWarn, "%d foods without emission factors: %s",
			len(missingGhg), strings.Join(missingGhg, ", "))
	} else {
		report.add("ghg_coverage", StatusPass, "all %d foods have at least one emission factor", len(foods))
	}

	badUnit := 0
	badRange := 0
	outliers := 0
	for _, f := range factors {
		if f.Unit != model.GhgUnit {
			badUnit++
		}
		if f.ValueMin > f.ValueMid || f.ValueMid > f.ValueMax {
			badRange++
		}
		if f.ValueMid > 200 || f.ValueMid < 0 {
			outliers++
		}
	}
	if badUnit > 0 {
		report.add("ghg_unit_consistency", StatusFail, "%d factors with unit other than %q", badUnit, model.GhgUnit)
	} else {
		report.add("ghg_unit_consistency", StatusPass, "all factors use %q", model.GhgUnit)
	}
	if badRange > 0 {
		report.add("ghg_range_validity", StatusFail, "%d factors violate min <= mid <= max", badRange)
	} else {
		report.add("ghg_range_validity", StatusPass, "all factor ranges ordered")
	}
	if outliers > 0 {
		report.add("ghg_outlier_detection", StatusWarn, "%d factors with implausible mid value", outliers)
	} else {
		report.add("ghg_outlier_detection", StatusPass, "no outlier mid values")
	}

	checkCitations := func(table string, ids []string) {
		broken := 0
		for _, id := range ids {
			if !sourceIDs[id] {
				broken++
			}
		}
		if broken > 0 {
			report.add("citation_integrity_"+table, StatusFail, "%d %s rows cite a missing source", broken, table)
		} else {
			report.add("citation_integrity_"+table, StatusPass, "all %s rows cite a registered source", table)
		}
	}
	factorSources := make([]string, 0, len(factors))
	for _, f := range factors {
		factorSources = append(factorSources, f.SourceID)
	}
	checkCitations("ghg_factors", factorSources)
	seasonSources := make([]string, 0, len(seasonality))
	for _, s := range seasonality {
		seasonSources = append(seasonSources, s.SourceID)
	}
	checkCitations("seasonality", seasonSources)
	originSources := make([]string, 0, len(origins))
	for _, o := range origins {
		originSources = append(originSources, o.SourceID)
	}
	checkCitations("origins", originSources)
	riskSources := make([]string, 0, len(waterRisks))
	for _, w := range waterRisks {
		riskSources = append(riskSources, w.SourceID)
	}
	checkCitations("water_risks", riskSources)

	outOfRange := 0
	seasonFoods := make(map[string]bool)
	for _, s := range seasonality {
		if s.Probability < 0 || s.Probability > 1 {
			outOfRange++
		}
		seasonFoods[s.FoodID] = true
	}
	if outOfRange > 0 {
		report.add("seasonality_probability_range", StatusFail, "%d seasonality rows outside [0,1]", outOfRange)
	} else {
		report.add("seasonality_probability_range", StatusPass, "all seasonality probabilities within [0,1]")
	}

	var produceMissing []string
	produceTotal := 0
	for _, f := range foods {
		if f.Category != model.CategoryProduce {
			continue
		}
		produceTotal++
		if !seasonFoods[f.ID] {
			produceMissing = append(produceMissing, f.ID)
		}
	}
	if len(produceMissing) > 0 {
		sort.Strings(produceMissing)
		report.add("produce_seasonality_coverage", StatusWarn, "%d of %d produce foods lack seasonality: %s",
			len(produceMissing), produceTotal, strings.Join(produceMissing, ", "))
	} else {
		report.add("produce_seasonality_coverage", StatusPass, "all %d produce foods have seasonality", produceTotal)
	}

	byCategory := make(map[model.Category]int)
	for _, f := range foods {
		byCategory[f.Category]++
	}
	parts := make([]string, 0, len(byCategory))
	for cat, n := range byCategory {
		parts = append(parts, fmt.Sprintf("%s=%d", cat, n))
	}
	sort.Strings(parts)
	report.add("category_distribution", StatusInfo, "%s", strings.Join(parts, " "))

	if len(sources) >= 4 {
		report.add("source_count", StatusPass, "%d registered sources", len(sources))
	} else {
		report.add("source_count", StatusWarn, "only %d registered sources", len(sources))
	}

	return report, nil
}
