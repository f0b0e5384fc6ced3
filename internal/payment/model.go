package payment

import "encoding/base64"

type Status string

const (
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusAuthorized  Status = "authorized"
	StatusInProcess   Status = "in_process"
	StatusInMediation Status = "in_mediation"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusRefunded    Status = "refunded"
	StatusChargedBack Status = "charged_back"
)

// Statuses lists every status the provider may report.
var Statuses = []Status{
	StatusPending,
	StatusApproved,
	StatusAuthorized,
	StatusInProcess,
	StatusInMediation,
	StatusRejected,
	StatusCancelled,
	StatusRefunded,
	StatusChargedBack,
}

// StatusInfo is the human readable description of a status.
type StatusInfo struct {
	Type        Status `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var statusCatalogue = map[Status]StatusInfo{
	StatusPending:     {Type: StatusPending, Title: "Pending", Description: "The payer has not completed the payment yet."},
	StatusApproved:    {Type: StatusApproved, Title: "Approved", Description: "The payment was approved and credited."},
	StatusAuthorized:  {Type: StatusAuthorized, Title: "Authorized", Description: "The payment was authorized but not captured yet."},
	StatusInProcess:   {Type: StatusInProcess, Title: "In process", Description: "The payment is under review."},
	StatusInMediation: {Type: StatusInMediation, Title: "In mediation", Description: "The payer started a dispute."},
	StatusRejected:    {Type: StatusRejected, Title: "Rejected", Description: "The payment was rejected; the payer may try again."},
	StatusCancelled:   {Type: StatusCancelled, Title: "Cancelled", Description: "The payment was cancelled by one of the parties or expired."},
	StatusRefunded:    {Type: StatusRefunded, Title: "Refunded", Description: "The payment was refunded to the payer."},
	StatusChargedBack: {Type: StatusChargedBack, Title: "Charged back", Description: "A chargeback was applied to the payer's card."},
}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := statusCatalogue[st]
	return st, ok
}

func (s Status) Valid() bool {
	_, ok := statusCatalogue[s]
	return ok
}

// IsTerminal reports whether no transition is defined out of s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

func (s Status) Info() StatusInfo {
	return statusCatalogue[s]
}

type QRImage struct {
	Base64 string
}

// Bytes decodes the PNG image.
func (i QRImage) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(i.Base64)
}

// QRCode is the Pix copy-and-paste content plus its rendered image.
type QRCode struct {
	Content string
	Image   QRImage
}

func (q QRCode) Valid() bool {
	return q.Content != "" && q.Image.Base64 != ""
}
