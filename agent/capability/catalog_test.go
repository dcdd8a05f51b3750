package capability

import (
	"testing"
)

func TestCatalogMatchesDispatchTable(t *testing.T) {
	t.Parallel()

	infos := Catalog()
	if len(infos) != len(requiredParams) {
		t.Fatalf("expected %d catalog entries, got %d", len(requiredParams), len(infos))
	}
	seen := map[string]bool{}
	for _, info := range infos {
		if _, ok := requiredParams[info.Name]; !ok {
			t.Errorf("catalog entry %q has no dispatch entry", info.Name)
		}
		if info.Desc == "" {
			t.Errorf("catalog entry %q has no description", info.Name)
		}
		if seen[info.Name] {
			t.Errorf("duplicate catalog entry %q", info.Name)
		}
		seen[info.Name] = true
	}
}

func TestBookingRequiredParameters(t *testing.T) {
	t.Parallel()

	want := []string{"patient_name", "patient_email", "doctor_name", "appointment_date", "appointment_time"}
	got := requiredParams[CapabilityBookAppointment]
	if len(got) != len(want) {
		t.Fatalf("expected %d required params, got %v", len(want), got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Fatalf("expected param %d to be %q, got %q", i, name, got[i])
		}
	}
}

func TestListDoctorsHasNoRequiredParameters(t *testing.T) {
	t.Parallel()

	params, ok := requiredParams[CapabilityListDoctors]
	if !ok {
		t.Fatal("list_doctors missing from dispatch table")
	}
	if len(params) != 0 {
		t.Fatalf("expected no required params, got %v", params)
	}
}
