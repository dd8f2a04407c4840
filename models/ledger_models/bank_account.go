package ledger_models

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ifscPattern = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)

// BankAccountInput registers a payout destination. Either a full bank account
// (number and IFSC) or a UPI id is required.
type BankAccountInput struct {
	UserID            uuid.UUID
	AccountHolderName string `json:"account_holder_name" binding:"required"`
	AccountNumber     string `json:"account_number"`
	IFSC              string `json:"ifsc"`
	BankName          string `json:"bank_name"`
	UPIID             string `json:"upi_id"`
	IsPrimary         bool   `json:"is_primary"`
}

// Normalise trims the input and upper-cases the IFSC.
func (in *BankAccountInput) Normalise() {
	in.AccountHolderName = strings.TrimSpace(in.AccountHolderName)
	in.AccountNumber = strings.TrimSpace(in.AccountNumber)
	in.IFSC = strings.ToUpper(strings.TrimSpace(in.IFSC))
	in.BankName = strings.TrimSpace(in.BankName)
	in.UPIID = strings.TrimSpace(in.UPIID)
}

func (in BankAccountInput) Validate() error {
	if in.UserID == uuid.Nil {
		return invalid("user id is required")
	}
	if in.AccountHolderName == "" {
		return invalid("account holder name is required")
	}
	hasBank := in.AccountNumber != "" || in.IFSC != ""
	if !hasBank && in.UPIID == "" {
		return invalid("a bank account or UPI id is required")
	}
	if hasBank {
		if len(in.AccountNumber) < 6 || len(in.AccountNumber) > 18 {
			return invalid("account number must be 6 to 18 digits")
		}
		for _, r := range in.AccountNumber {
			if r < '0' || r > '9' {
				return invalid("account number must be numeric")
			}
		}
		if !ifscPattern.MatchString(in.IFSC) {
			return invalid("invalid IFSC code %q", in.IFSC)
		}
	}
	if in.UPIID != "" && !IsValidUPI(in.UPIID) {
		return invalid("invalid UPI id %q", in.UPIID)
	}
	return nil
}

// Destination renders the account the way settlements record it: the UPI id when
// present, otherwise account@IFSC.
func (a *BankAccount) Destination() string {
	if a.UPIID != nil && *a.UPIID != "" {
		return *a.UPIID
	}
	if a.AccountNumber != nil && a.IFSC != nil {
		return *a.AccountNumber + "@" + *a.IFSC
	}
	return ""
}
