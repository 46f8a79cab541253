package contacts

import "testing"

func TestExtractFindsContactDetails(t *testing.T) {
	text := `
Jane A. Roe
Senior Backend Engineer
jane.roe@example.com | +1 (512) 555-0199 | linkedin.com/in/janeroe
Austin, TX 78701

Experience 2019-2023
`
	got := Extract(text)

	if got.FirstName != "Jane" || got.LastName != "Roe" {
		t.Fatalf("unexpected name %q %q", got.FirstName, got.LastName)
	}
	if got.Email != "jane.roe@example.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}
	if got.Phone != "+1 (512) 555-0199" {
		t.Fatalf("unexpected phone %q", got.Phone)
	}
	if got.LinkedIn != "linkedin.com/in/janeroe" {
		t.Fatalf("unexpected linkedin %q", got.LinkedIn)
	}
	if !got.HasName() {
		t.Fatalf("expected HasName")
	}
}

func TestExtractSkipsShortDigitRuns(t *testing.T) {
	got := Extract("Worked at Acme 2019-2023, zip 78701")
	if got.Phone != "" {
		t.Fatalf("expected no phone, got %q", got.Phone)
	}
}

func TestExtractEmptyText(t *testing.T) {
	if got := Extract("   "); !got.Empty() {
		t.Fatalf("expected empty contact, got %+v", got)
	}
}

func TestExtractNameNeedsCapitalisedWords(t *testing.T) {
	got := Extract("curriculum vitae\nexperienced engineer with 10 years\n")
	if got.HasName() {
		t.Fatalf("expected no name, got %q %q", got.FirstName, got.LastName)
	}
}
