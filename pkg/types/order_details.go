package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DeliveryInformation is stored as a JSON document on the order row.
type DeliveryInformation struct {
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Method       string `json:"method,omitempty"`
}

func (d DeliveryInformation) Value() (driver.Value, error) {
	return jsonValue(d)
}

func (d *DeliveryInformation) Scan(value any) error {
	return jsonScan(value, d)
}

// PaymentInfo records how the order is paid for; payments are not processed here.
type PaymentInfo struct {
	Method string `json:"method,omitempty"`
	Status string `json:"status,omitempty"`
}

func (p PaymentInfo) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *PaymentInfo) Scan(value any) error {
	return jsonScan(value, p)
}

type PrescriptionDetails struct {
	PrescriptionNumber string `json:"prescriptionNumber,omitempty"`
	PrescribedBy       string `json:"prescribedBy,omitempty"`
	PrescriptionDate   string `json:"prescriptionDate,omitempty"`
	Diagnosis          string `json:"diagnosis,omitempty"`
}

func (p PrescriptionDetails) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *PrescriptionDetails) Scan(value any) error {
	return jsonScan(value, p)
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(value any, dest any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
