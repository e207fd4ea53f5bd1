package validation

import "fmt"

// RecordRef identifies one waste record by type and row id, without carrying
// its data. Business rules only need identities.
type RecordRef struct {
	Type  string
	RowID string
}

// RuleContext is the shared input every business rule receives: the records
// extracted from the current submission and the records already stored for
// the same registration.
type RuleContext struct {
	Records  []RecordRef
	Existing []RecordRef
}

// Rule is one cross-submission business check. Rules are independent; each
// contributes its own issues and none may suppress another's.
type Rule interface {
	Name() string
	Apply(ctx RuleContext) *Issues
}

// BusinessRules returns the rule list in evaluation order. Extending the
// business layer means appending a rule here.
func BusinessRules() []Rule {
	return []Rule{
		RowContinuityRule{},
	}
}

// ValidateDataBusiness runs every rule against the same context and merges
// their findings in rule order.
func ValidateDataBusiness(ctx RuleContext, rules []Rule) *Issues {
	issues := NewIssues()
	for _, rule := range rules {
		issues.Merge(rule.Apply(ctx))
	}
	return issues
}

// RowContinuityRule enforces that a row id, once submitted, appears in every
// later submission for the registration. Rows may be added or corrected but
// never silently removed; a removal invalidates the whole submission.
type RowContinuityRule struct{}

func (RowContinuityRule) Name() string { return "row-continuity" }

func (RowContinuityRule) Apply(ctx RuleContext) *Issues {
	issues := NewIssues()
	if len(ctx.Existing) == 0 {
		// First submission for the registration; nothing to carry forward.
		return issues
	}

	current := make(map[RecordRef]bool, len(ctx.Records))
	for _, ref := range ctx.Records {
		current[ref] = true
	}

	for _, ref := range ctx.Existing {
		if current[ref] {
			continue
		}
		issues.AddFatal(CategoryBusiness, CodeSequentialRowRemoved,
			fmt.Sprintf("previously submitted row %s is missing from this submission", ref.RowID),
			&Context{Path: ref.Type, RowID: ref.RowID})
	}
	return issues
}
