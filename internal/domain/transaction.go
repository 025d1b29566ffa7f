// Package domain defines the core types and interfaces for Kingfisher.
package domain

import (
	"time"
)

// Transaction is one raw UPI transaction record, either a historical row
// from a training dataset or a single record assembled from an online
// assessment request.
type Transaction struct {
	// Amount in INR. Must be positive.
	Amount float64 `json:"amount"`

	// Transaction type: "P2P", "P2M", or "Bank Transfer".
	Type string `json:"type"`

	MerchantCategory string `json:"merchantCategory"`
	Status           string `json:"status"`

	SenderAgeGroup   string `json:"senderAgeGroup"`
	ReceiverAgeGroup string `json:"receiverAgeGroup"`
	SenderState      string `json:"senderState"`
	SenderBank       string `json:"senderBank"`
	ReceiverBank     string `json:"receiverBank"`

	DeviceType  string `json:"deviceType"`
	NetworkType string `json:"networkType"`

	// Temporal
	Timestamp time.Time `json:"timestamp"`

	// HourOfDay is the pre-computed hour column carried by the dataset, or an
	// explicit per-request override. Negative means "derive from Timestamp".
	HourOfDay int `json:"hourOfDay"`

	// DayOfWeek is the raw day name column ("Monday" or "Mon"). Empty means
	// "derive from Timestamp".
	DayOfWeek string `json:"dayOfWeek"`

	// FraudFlag is the binary label. -1 when the record is unlabeled
	// (inference input).
	FraudFlag int `json:"fraudFlag"`
}

// Labeled reports whether the record carries a fraud label.
func (t *Transaction) Labeled() bool {
	return t.FraudFlag == 0 || t.FraudFlag == 1
}

// AssessmentRequest is the structured input for a single online risk
// assessment. The single age group and bank are applied to both sender and
// receiver sides of the record.
type AssessmentRequest struct {
	Amount           float64 `json:"amount"`
	Type             string  `json:"type"`
	MerchantCategory string  `json:"category"`
	Status           string  `json:"status"`
	AgeGroup         string  `json:"ageGroup"`
	State            string  `json:"state"`
	Bank             string  `json:"bank"`
	Device           string  `json:"device"`
	Network          string  `json:"network"`

	// SenderVPA keys per-sender velocity tracking. Optional.
	SenderVPA string `json:"senderVpa,omitempty"`

	// ManualReview forces ROUTE_TO_REVIEW regardless of score.
	ManualReview bool `json:"manualReview,omitempty"`

	// HourOfDay overrides the hour derived from the assessment time.
	HourOfDay *int `json:"hourOfDay,omitempty"`

	// Timestamp of the assessment. Zero means "now", filled by the assessor.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ToTransaction converts the request into a raw transaction record using the
// same field mapping for every call site.
func (r *AssessmentRequest) ToTransaction() Transaction {
	hour := -1
	if r.HourOfDay != nil {
		hour = *r.HourOfDay
	}

	status := r.Status
	if status == "" {
		status = "SUCCESS"
	}
	category := r.MerchantCategory
	if category == "" {
		category = "General"
	}

	return Transaction{
		Amount:           r.Amount,
		Type:             r.Type,
		MerchantCategory: category,
		Status:           status,
		SenderAgeGroup:   r.AgeGroup,
		ReceiverAgeGroup: r.AgeGroup,
		SenderState:      r.State,
		SenderBank:       r.Bank,
		ReceiverBank:     r.Bank,
		DeviceType:       r.Device,
		NetworkType:      r.Network,
		Timestamp:        r.Timestamp,
		HourOfDay:        hour,
		DayOfWeek:        "",
		FraudFlag:        -1,
	}
}

// Hour resolves the effective transaction hour: the explicit override when
// present, otherwise the hour of the request timestamp.
func (r *AssessmentRequest) Hour() int {
	if r.HourOfDay != nil {
		return *r.HourOfDay
	}
	return r.Timestamp.Hour()
}
