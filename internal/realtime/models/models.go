package models

import (
	screening "screenguard/internal/screening/models"
)

// EntityKind tags which party of a transaction produced a match.
type EntityKind string

const (
	KindMerchant     EntityKind = "MERCHANT"
	KindCounterparty EntityKind = "COUNTERPARTY"
)

// Merchant is the registered identity of a merchant reference.
type Merchant struct {
	ID          string `json:"id"`
	LegalName   string `json:"legalName"`
	TradingName string `json:"tradingName,omitempty"`
}

// Transaction is the minimal view of a payment needed for screening.
type Transaction struct {
	ID               string `json:"id"`
	MerchantID       string `json:"merchantId,omitempty"`
	CounterpartyName string `json:"counterpartyName,omitempty"`
}

// ScreeningMatch is one screened party's outcome inside a transaction decision.
type ScreeningMatch struct {
	EntityID     string                    `json:"entityId,omitempty"`
	EntityKind   EntityKind                `json:"entityKind"`
	ScreenedName string                    `json:"screenedName"`
	Result       screening.ScreeningResult `json:"result"`
	Blocking     bool                      `json:"blocking"`
}

// TransactionScreeningResult is the block/allow decision for one transaction.
type TransactionScreeningResult struct {
	TransactionID string           `json:"transactionId"`
	Matches       []ScreeningMatch `json:"matches,omitempty"`
	ShouldBlock   bool             `json:"shouldBlock"`
}
