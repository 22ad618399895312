package models

import "time"

// FundType classifies a proof-of-funds item.
type FundType string

const (
	FundCash        FundType = "cash"
	FundBankCard    FundType = "bank_card"
	FundBankBalance FundType = "bank_balance"
	FundDocument    FundType = "document"
	FundInvestment  FundType = "investment"
	FundOther       FundType = "other"
)

// FundItem is one proof-of-funds entry. A user can have many, each created,
// edited and deleted independently. PhotoURI may be empty.
type FundItem struct {
	ID        string
	UserID    string
	Type      FundType
	Amount    float64
	Currency  string
	Details   string
	PhotoURI  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
