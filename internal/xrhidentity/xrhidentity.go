package xrhidentity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/redhatinsights/platform-go-middlewares/identity"
)

// Header carries the base64 encoded identity
const Header = "x-rh-identity"

// Decode parses a base64 encoded x-rh-identity value
func Decode(str string) (*identity.XRHID, error) {
	data, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("Error decoding identity: %w", err)
	}

	var xrh identity.XRHID
	if err := json.Unmarshal(data, &xrh); err != nil {
		return nil, fmt.Errorf("Error parsing identity: %w", err)
	}
	return &xrh, nil
}

// Encode is the reverse of Decode
func Encode(xrh identity.XRHID) (string, error) {
	data, err := json.Marshal(xrh)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// UserID returns the id the ledger keeps memberships under, the username
// and failing that the account number
func UserID(xrh identity.XRHID) string {
	if xrh.Identity.User.Username != "" {
		return xrh.Identity.User.Username
	}
	return xrh.Identity.AccountNumber
}
