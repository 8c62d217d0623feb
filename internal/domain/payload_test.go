package domain

import (
	"reflect"
	"testing"
)

func TestDescribeAntenatal(t *testing.T) {
	lines := Describe(Antenatal{
		BloodPressure: BloodPressure{Systolic: "120", Diastolic: "80"},
		Weight:        "65.5",
		FundalHeight:  "28",
		TestResults:   "Hb 12",
	})

	want := []string{"BP: 120/80 mmHg", "Weight: 65.5 kg", "Fundal Height: 28 cm", "Results: Hb 12"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %v want %v", lines, want)
	}
}

func TestDescribeImmunizationOptionalFields(t *testing.T) {
	lines := Describe(Immunization{VaccineType: "BCG", DoseNumber: "1"})
	if len(lines) != 2 {
		t.Fatalf("expected only vaccine and dose lines, got %v", lines)
	}

	notes := "mild fever"
	lines = Describe(Immunization{
		VaccineType:      "BCG",
		DoseNumber:       "1",
		Notes:            &notes,
		PatientFirstName: "Ama",
		PatientLastName:  "Mensah",
	})
	want := []string{"Vaccine: BCG", "Dose: 1", "Patient: Ama Mensah", "Notes: mild fever"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %v want %v", lines, want)
	}
}

func TestQueueKeyFor(t *testing.T) {
	if QueueKeyFor(PayloadAntenatal) == QueueKeyFor(PayloadImmunization) {
		t.Fatalf("log types must use separate durable keys")
	}
}

func TestNormalizeComposesText(t *testing.T) {
	decomposed := "José"
	notes := "café"
	got := Normalize(Immunization{
		VaccineType:      "BCG",
		DoseNumber:       "1",
		PatientFirstName: decomposed,
		Notes:            &notes,
	}).(Immunization)

	if got.PatientFirstName != "José" {
		t.Fatalf("first name not composed: %q", got.PatientFirstName)
	}
	if *got.Notes != "café" {
		t.Fatalf("notes not composed: %q", *got.Notes)
	}
	if notes != "café" {
		t.Fatalf("input notes were modified")
	}
}
