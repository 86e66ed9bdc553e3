package entity

// Authoritative holds the fund-symbol fields some extracts carry as
// explicit columns (FY1, FY2, ALLOC). Empty means the row has no value.
type Authoritative struct {
	BeginPeriod    string `json:"begin_period,omitempty"`
	EndPeriod      string `json:"end_period,omitempty"`
	AllocationCode string `json:"allocation_code,omitempty"`
}

// Empty reports whether the row carries no authoritative value at all.
func (a Authoritative) Empty() bool {
	return a.BeginPeriod == "" && a.EndPeriod == "" && a.AllocationCode == ""
}

// Discriminator is one extra identifier column that keeps accounts apart.
type Discriminator struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// RawLineItem é uma linha normalizada de um extrato. Imutável depois de criada.
type RawLineItem struct {
	Agency         string
	Bureau         string
	AccountCode    string
	LineNumber     int
	FundSymbolText string
	// FundSymbolComposed is set when the text was built from the authoritative columns.
	FundSymbolComposed bool
	Amounts            Amounts
	SourceFile         string
	SourceRow          int
	UnitMultiplier     int64
	Layout             LayoutType
	Authoritative      Authoritative
	Discriminators     []Discriminator
	// Attributes carries the remaining descriptive columns, first value wins on aggregation.
	Attributes map[string]string
}
