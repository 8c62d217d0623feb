package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type PayloadKind string

const (
	PayloadAntenatal    PayloadKind = "antenatal"
	PayloadImmunization PayloadKind = "immunization"
)

// Payload is the variant body of an Entry. Antenatal and Immunization are the only implementations.
type Payload interface {
	Kind() PayloadKind
	// Missing lists the required fields that are empty.
	Missing() []string
	isPayload()
}

type BloodPressure struct {
	Systolic  string `json:"systolic"`
	Diastolic string `json:"diastolic"`
}

func (bp BloodPressure) String() string {
	return fmt.Sprintf("%s/%s", bp.Systolic, bp.Diastolic)
}

type Antenatal struct {
	BloodPressure BloodPressure `json:"bloodPressure"`
	Weight        string        `json:"weight"`
	FundalHeight  string        `json:"fundalHeight"`
	TestResults   string        `json:"testResults"`
}

func (Antenatal) Kind() PayloadKind { return PayloadAntenatal }
func (Antenatal) isPayload()        {}

func (a Antenatal) Missing() []string {
	var missing []string
	if blank(a.BloodPressure.Systolic) {
		missing = append(missing, "bloodPressure.systolic")
	}
	if blank(a.BloodPressure.Diastolic) {
		missing = append(missing, "bloodPressure.diastolic")
	}
	if blank(a.Weight) {
		missing = append(missing, "weight")
	}
	if blank(a.FundalHeight) {
		missing = append(missing, "fundalHeight")
	}
	if blank(a.TestResults) {
		missing = append(missing, "testResults")
	}
	return missing
}

type Immunization struct {
	VaccineType      string  `json:"vaccineType"`
	DoseNumber       string  `json:"doseNumber"`
	Notes            *string `json:"notes,omitempty"`
	PatientFirstName string  `json:"patientFirstName,omitempty"`
	PatientLastName  string  `json:"patientLastName,omitempty"`
}

func (Immunization) Kind() PayloadKind { return PayloadImmunization }
func (Immunization) isPayload()        {}

func (i Immunization) Missing() []string {
	var missing []string
	if blank(i.VaccineType) {
		missing = append(missing, "vaccineType")
	}
	if blank(i.DoseNumber) {
		missing = append(missing, "doseNumber")
	}
	return missing
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Normalize returns p with every text field in Unicode NFC.
func Normalize(p Payload) Payload {
	switch v := p.(type) {
	case Antenatal:
		v.BloodPressure.Systolic = norm.NFC.String(v.BloodPressure.Systolic)
		v.BloodPressure.Diastolic = norm.NFC.String(v.BloodPressure.Diastolic)
		v.Weight = norm.NFC.String(v.Weight)
		v.FundalHeight = norm.NFC.String(v.FundalHeight)
		v.TestResults = norm.NFC.String(v.TestResults)
		return v
	case Immunization:
		v.VaccineType = norm.NFC.String(v.VaccineType)
		v.DoseNumber = norm.NFC.String(v.DoseNumber)
		v.PatientFirstName = norm.NFC.String(v.PatientFirstName)
		v.PatientLastName = norm.NFC.String(v.PatientLastName)
		if v.Notes != nil {
			notes := norm.NFC.String(*v.Notes)
			v.Notes = &notes
		}
		return v
	default:
		return p
	}
}

// Describe renders the payload the way field staff read it.
func Describe(p Payload) []string {
	switch v := p.(type) {
	case Antenatal:
		return []string{
			"BP: " + v.BloodPressure.String() + " mmHg",
			"Weight: " + v.Weight + " kg",
			"Fundal Height: " + v.FundalHeight + " cm",
			"Results: " + v.TestResults,
		}
	case Immunization:
		lines := []string{
			"Vaccine: " + v.VaccineType,
			"Dose: " + v.DoseNumber,
		}
		if v.PatientFirstName != "" || v.PatientLastName != "" {
			lines = append(lines, "Patient: "+strings.TrimSpace(v.PatientFirstName+" "+v.PatientLastName))
		}
		if v.Notes != nil && *v.Notes != "" {
			lines = append(lines, "Notes: "+*v.Notes)
		}
		return lines
	default:
		return nil
	}
}

type payloadEnvelope struct {
	Type PayloadKind `json:"type"`
}

func marshalPayload(p Payload) ([]byte, error) {
	switch v := p.(type) {
	case Antenatal:
		return json.Marshal(struct {
			Type PayloadKind `json:"type"`
			Antenatal
		}{PayloadAntenatal, v})
	case Immunization:
		return json.Marshal(struct {
			Type PayloadKind `json:"type"`
			Immunization
		}{PayloadImmunization, v})
	default:
		return nil, fmt.Errorf("unknown payload type %T", p)
	}
}

func unmarshalPayload(data []byte) (Payload, error) {
	var env payloadEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case PayloadAntenatal:
		var a Antenatal
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case PayloadImmunization:
		var i Immunization
		if err := json.Unmarshal(data, &i); err != nil {
			return nil, err
		}
		return i, nil
	default:
		return nil, fmt.Errorf("unknown payload type: %q", env.Type)
	}
}
