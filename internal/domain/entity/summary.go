package entity

import "github.com/shopspring/decimal"

// AccountSummaryRecord joins the unobligated balance (line 2490) and the
// budget authority (line 2500) of one account.
type AccountSummaryRecord struct {
	Agency              string          `json:"agency"`
	Bureau              string          `json:"bureau"`
	AccountDisplayName  string          `json:"account"`
	AccountNumber       string          `json:"account_number"`
	PeriodOfPerformance string          `json:"period_of_performance"`
	ExpirationYear      string          `json:"expiration_year"`
	FundSymbol          string          `json:"tafs"`
	Layout              LayoutType      `json:"layout"`
	UnobligatedBalance  decimal.Decimal `json:"unobligated_balance"`
	BudgetAuthority     decimal.Decimal `json:"budget_authority"`
	PercentUnobligated  decimal.Decimal `json:"percent_unobligated"`

	UnobligatedBalanceDisplay string `json:"unobligated_balance_display"`
	BudgetAuthorityDisplay    string `json:"budget_authority_display"`
	PercentUnobligatedDisplay string `json:"percent_unobligated_display"`
}

// MergeStats counts what the merger matched and what it left out.
type MergeStats struct {
	AsOfMonth       Month `json:"as_of_month"`
	UnobligatedRows int   `json:"unobligated_rows"`
	AuthorityRows   int   `json:"authority_rows"`
	Matched         int   `json:"matched"`
	OnlyUnobligated int   `json:"only_unobligated"`
	OnlyAuthority   int   `json:"only_authority"`
	MissingMonth    int   `json:"missing_month"`
	DuplicateKeys   int   `json:"duplicate_keys"`
}
