package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCOD          Method = "cod"
	MethodBankTransfer Method = "bank_transfer"
)

func (m Method) Valid() bool {
	return m == MethodCOD || m == MethodBankTransfer
}

var ErrQRNotConfigured = errors.New("payment QR account is not configured")

const qrBaseURL = "https://img.vietqr.io/image"

// QRBuilder renders VietQR image links for the shop's receiving account.
type QRBuilder struct {
	BankID      string
	AccountNo   string
	AccountName string
}

// URL returns the QR image for a transfer of amount with memo as the
// transfer content. Amounts are rounded up to whole units.
func (b QRBuilder) URL(amount decimal.Decimal, memo string) (string, error) {
	if b.BankID == "" || b.AccountNo == "" {
		return "", ErrQRNotConfigured
	}

	q := url.Values{}
	q.Set("amount", amount.Ceil().StringFixed(0))
	q.Set("addInfo", memo)
	if b.AccountName != "" {
		q.Set("accountName", b.AccountName)
	}

	return fmt.Sprintf("%s/%s-%s-compact2.png?%s",
		qrBaseURL,
		url.PathEscape(strings.ToLower(b.BankID)),
		url.PathEscape(b.AccountNo),
		q.Encode(),
	), nil
}

// Info is what a customer needs to pay for an order.
type Info struct {
	Method       Method   `json:"method"`
	Amount       string   `json:"amount"`
	Memo         string   `json:"memo"`
	QRURL        string   `json:"qrUrl,omitempty"`
	Instructions []string `json:"instructions"`
}

// BuildInfo assembles payment details for an order code and total.
func (b QRBuilder) BuildInfo(method Method, code string, amount decimal.Decimal) (*Info, error) {
	info := &Info{
		Method: method,
		Amount: amount.Ceil().StringFixed(0),
		Memo:   code,
	}

	if method == MethodBankTransfer {
		qr, err := b.URL(amount, code)
		if err != nil {
			return nil, err
		}
		info.QRURL = qr
	}

	info.Instructions = InjectVariables(GetInstructions(method), InstructionVars{
		"amount":       info.Amount,
		"code":         code,
		"account_no":   b.AccountNo,
		"account_name": b.AccountName,
	})
	return info, nil
}
