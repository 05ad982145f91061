package handler

import "github.com/vocabworks/vocab-ranking-platform/pkg/config"

// SettingsPatch overrides individual ranking settings per request. Nil
// fields keep the configured defaults. An explicit maxRefZipf of 0 or
// below clears the upper bound.
type SettingsPatch struct {
	Limit               *int     `json:"limit,omitempty"`
	AllowOnes           *bool    `json:"allow_ones,omitempty"`
	AllowInflections    *bool    `json:"allow_inflections,omitempty"`
	UseReferenceScoring *bool    `json:"use_reference_scoring,omitempty"`
	MinRefZipf          *float64 `json:"min_ref_zipf,omitempty"`
	MaxRefZipf          *float64 `json:"max_ref_zipf,omitempty"`
	BalanceWeight       *float64 `json:"balance_weight,omitempty"`
	MarkGroupedLemmas   *bool    `json:"mark_grouped_lemmas,omitempty"`
	IgnorePatterns      []string `json:"ignore_patterns,omitempty"`
}

// Apply merges the patch over the configured defaults.
func (p SettingsPatch) Apply(base config.RankingConfig) config.RankingConfig {
	out := base
	if p.Limit != nil {
		out.Limit = *p.Limit
	}
	if p.AllowOnes != nil {
		out.AllowOnes = *p.AllowOnes
	}
	if p.AllowInflections != nil {
		out.AllowInflections = *p.AllowInflections
	}
	if p.UseReferenceScoring != nil {
		out.UseReferenceScoring = *p.UseReferenceScoring
	}
	if p.MinRefZipf != nil {
		out.MinRefZipf = *p.MinRefZipf
	}
	if p.MaxRefZipf != nil {
		if *p.MaxRefZipf > 0 {
			v := *p.MaxRefZipf
			out.MaxRefZipf = &v
		} else {
			out.MaxRefZipf = nil
		}
	}
	if p.BalanceWeight != nil {
		out.BalanceWeight = *p.BalanceWeight
	}
	if p.MarkGroupedLemmas != nil {
		out.MarkGroupedLemmas = *p.MarkGroupedLemmas
	}
	if p.IgnorePatterns != nil {
		out.IgnorePatterns = p.IgnorePatterns
	}
	return out
}
