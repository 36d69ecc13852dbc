package ledger

// Wire shapes returned by the ledger's query API. Field names follow the
// upstream JSON exactly; mapping to canonical entities happens in the
// sync service.

// QueryResponse is the envelope around query results.
type QueryResponse struct {
	QueryResponse struct {
		Invoice []WireInvoice `json:"Invoice"`
		Payment []WirePayment `json:"Payment"`
	} `json:"QueryResponse"`
}

// Ref is the ledger's generic value/name reference pair.
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

// WireInvoice is an invoice as returned by the ledger query endpoint.
type WireInvoice struct {
	ID          string     `json:"Id"`
	DocNumber   string     `json:"DocNumber"`
	CustomerRef Ref        `json:"CustomerRef"`
	TotalAmt    float64    `json:"TotalAmt"`
	CurrencyRef Ref        `json:"CurrencyRef"`
	TxnDate     string     `json:"TxnDate"`
	DueDate     string     `json:"DueDate"`
	Balance     float64    `json:"Balance"`
	Line        []WireLine `json:"Line"`
}

// WireLine is an invoice line.
type WireLine struct {
	Description         string         `json:"Description"`
	Amount              float64        `json:"Amount"`
	SalesItemLineDetail WireLineDetail `json:"SalesItemLineDetail"`
}

// WireLineDetail carries the quantity and unit price of an invoice line.
type WireLineDetail struct {
	Qty       float64 `json:"Qty"`
	UnitPrice float64 `json:"UnitPrice"`
}

// WirePayment is a payment as returned by the ledger query endpoint.
type WirePayment struct {
	ID               string            `json:"Id"`
	CustomerRef      Ref               `json:"CustomerRef"`
	TotalAmt         float64           `json:"TotalAmt"`
	CurrencyRef      Ref               `json:"CurrencyRef"`
	TxnDate          string            `json:"TxnDate"`
	PaymentMethodRef Ref               `json:"PaymentMethodRef"`
	PaymentRefNum    string            `json:"PaymentRefNum"`
	Line             []WirePaymentLine `json:"Line"`
}

// WirePaymentLine carries the linked transactions for a payment line.
type WirePaymentLine struct {
	LinkedTxn []LinkedTxn `json:"LinkedTxn"`
}

// LinkedTxn references the transaction a payment line settles.
type LinkedTxn struct {
	TxnID   string `json:"TxnId"`
	TxnType string `json:"TxnType"`
}

// TokenResponse is the shape of the OAuth token endpoint response for both
// the authorization-code and refresh-token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}
