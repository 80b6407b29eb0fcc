package yahoo

// DTOs raw de la API de Yahoo Finance. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.
//
// Yahoo manda null en cualquier campo numérico (barras sin cotización, contratos
// sin trades), por eso todo lo numérico es puntero.

// apiError es el bloque "error" que acompaña a result vacío.
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- /v8/finance/chart ---

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// --- /v7/finance/options ---

type optionsResponse struct {
	OptionChain struct {
		Result []optionsResult `json:"result"`
		Error  *apiError       `json:"error"`
	} `json:"optionChain"`
}

type optionsResult struct {
	UnderlyingSymbol string       `json:"underlyingSymbol"`
	ExpirationDates  []int64      `json:"expirationDates"`
	Options          []optionsSet `json:"options"`
}

type optionsSet struct {
	ExpirationDate int64         `json:"expirationDate"`
	Calls          []contractRaw `json:"calls"`
	Puts           []contractRaw `json:"puts"`
}

type contractRaw struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            *float64 `json:"strike"`
	LastPrice         *float64 `json:"lastPrice"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	Volume            *int64   `json:"volume"`
	OpenInterest      *int64   `json:"openInterest"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
}
