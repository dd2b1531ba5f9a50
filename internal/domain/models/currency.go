package models

import "strings"

// Currency describes a supported working currency.
type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// DefaultCurrencyCode is used when no currency has been chosen.
const DefaultCurrencyCode = "USD"

// SupportedCurrencies lists the currencies a register can bill in.
var SupportedCurrencies = []Currency{
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen"},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
}

// LookupCurrency finds a supported currency by code, case-insensitively.
func LookupCurrency(code string) (Currency, bool) {
	code = strings.TrimSpace(code)
	for _, c := range SupportedCurrencies {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Currency{}, false
}

// CurrencySymbol returns the symbol for code, falling back to the default currency.
func CurrencySymbol(code string) string {
	if c, ok := LookupCurrency(code); ok {
		return c.Symbol
	}
	c, _ := LookupCurrency(DefaultCurrencyCode)
	return c.Symbol
}

// CurrencyCode maps a symbol back to its code, falling back to the default currency.
func CurrencyCode(symbol string) string {
	for _, c := range SupportedCurrencies {
		if c.Symbol == symbol {
			return c.Code
		}
	}
	return DefaultCurrencyCode
}
