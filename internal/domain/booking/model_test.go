package booking

import (
	"testing"
)

func TestRequiresFasting(t *testing.T) {
	cases := []struct {
		name  string
		tests []string
		want  bool
	}{
		{"cbc alone", []string{"CBC"}, true},
		{"kft alone", []string{"KFT"}, true},
		{"lipid profile alone", []string{"Lipid Profile"}, true},
		{"mixed with fasting test", []string{"Thyroid Panel", "KFT"}, true},
		{"disjoint list", []string{"Thyroid Panel", "Vitamin D"}, false},
		{"empty list", nil, false},
		{"similar but different name", []string{"Lipid"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RequiresFasting(tc.tests); got != tc.want {
				t.Errorf("RequiresFasting(%v) = %v, want %v", tc.tests, got, tc.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusReceived, StatusContacted, StatusConfirmed, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if Status("Booked").Valid() {
		t.Error("expected unknown status to be invalid")
	}
	if Status("").Valid() {
		t.Error("expected empty status to be invalid")
	}
}

func TestAddressLine(t *testing.T) {
	a := &Appointment{
		HouseNo:  strPtr("12A"),
		Street:   strPtr("MG Road"),
		Locality: strPtr("Indiranagar"),
		City:     strPtr("Bengaluru"),
		Pincode:  strPtr("560038"),
	}
	want := "12A, MG Road, Indiranagar, Bengaluru, 560038"
	if got := a.AddressLine(); got != want {
		t.Errorf("AddressLine() = %q, want %q", got, want)
	}
}

func TestAddressLine_Empty(t *testing.T) {
	a := &Appointment{}
	if got := a.AddressLine(); got != "" {
		t.Errorf("AddressLine() = %q, want empty", got)
	}
}

func TestCoordinatesLine(t *testing.T) {
	lat, lng := 12.9716, 77.5946
	a := &Appointment{Latitude: &lat, Longitude: &lng}
	if got := a.CoordinatesLine(); got != "12.9716, 77.5946" {
		t.Errorf("CoordinatesLine() = %q", got)
	}

	a = &Appointment{Latitude: &lat}
	if got := a.CoordinatesLine(); got != "" {
		t.Errorf("expected empty string for lone latitude, got %q", got)
	}
}

func TestContactLine(t *testing.T) {
	a := &Appointment{Phone: strPtr("+919800000000"), Email: strPtr("a@b.c")}
	if got := a.ContactLine(); got != "+919800000000, a@b.c" {
		t.Errorf("ContactLine() = %q", got)
	}

	a = &Appointment{Email: strPtr("a@b.c")}
	if got := a.ContactLine(); got != "a@b.c" {
		t.Errorf("ContactLine() = %q", got)
	}
}
