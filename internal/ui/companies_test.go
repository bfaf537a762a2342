package ui

import "testing"

func TestCompanyPayloadSnapshotsForm(t *testing.T) {
	form := companyForm{Name: "Acme Corp", Industry: "manufacturing", IsCustomer: true}
	data := companyPayload(form)

	form.Name = "Renamed"
	form.IsCustomer = false

	if *data.Name != "Acme Corp" {
		t.Fatalf("payload name = %q, want %q", *data.Name, "Acme Corp")
	}
	if *data.Industry != "manufacturing" {
		t.Fatalf("payload industry = %q, want %q", *data.Industry, "manufacturing")
	}
	if !*data.IsCustomer {
		t.Fatal("payload is_customer flipped after the form was edited")
	}
}
