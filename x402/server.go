// Package x402 implements the HTTP 402 payment handshake used to gate paid
// agent operations: the server side issues challenges and checks proofs, the
// client side settles a challenge on-chain and retries.
package x402

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Header names of the payment handshake. The discrete x-402-* headers
// duplicate the WWW-Authenticate parameters so simple clients can skip
// parsing the challenge string.
const (
	HeaderPaymentProof = "X-Payment-Proof"
	HeaderPrice        = "x-402-price"
	HeaderToken        = "x-402-token"
	HeaderDestination  = "x-402-destination"
)

// Requirement describes what a caller must pay to pass the gate.
type Requirement struct {
	Amount      float64
	Token       string
	Destination string
}

// FormatAmount renders a price without trailing zeros, matching how it is
// quoted in challenge headers.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// Challenge writes a 402 response carrying the payment requirement, both as
// a WWW-Authenticate challenge and as discrete headers.
func Challenge(c *gin.Context, req Requirement) {
	amount := FormatAmount(req.Amount)
	c.Header("WWW-Authenticate", fmt.Sprintf("x402 token=%q, amount=%q, destination=%q",
		req.Token, amount, req.Destination))
	c.Header(HeaderPrice, amount)
	c.Header(HeaderToken, req.Token)
	c.Header(HeaderDestination, req.Destination)
	c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment Required"})
}

// VerifyPayment reports whether the request carries a payment proof. Any
// non-empty proof is accepted; the proof value is not checked against the
// chain.
func VerifyPayment(r *http.Request) bool {
	return r.Header.Get(HeaderPaymentProof) != ""
}
