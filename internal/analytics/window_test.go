package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/ignite/campaign-insights/internal/deployment"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func rec(tacticID, clientID, date string) *deployment.Record {
	return &deployment.Record{
		TacticID:       tacticID,
		ClientID:       clientID,
		CampaignID:     "CAMP-1",
		CampaignName:   "Spring Promo",
		DeploymentDate: day(date),
		Channel:        "EMAIL",
	}
}

func runWindow(t *testing.T, batch []*deployment.Record) []*ContactFrequencyRecord {
	t.Helper()
	out, err := ContactFrequency(context.Background(), batch, Params{})
	if err != nil {
		t.Fatalf("ContactFrequency() error = %v", err)
	}
	return out
}

func TestContactFrequency_RecencyAndWindows(t *testing.T) {
	// Three contacts for one client on days 1, 5 and 40 of the history.
	batch := []*deployment.Record{
		rec("T3", "C1", "2024-02-09"), // day 40, out of order on purpose
		rec("T1", "C1", "2024-01-01"), // day 1
		rec("T2", "C1", "2024-01-05"), // day 5
	}
	out := runWindow(t, batch)

	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}

	first := out[0]
	if first.TacticID != "T1" || first.ContactNumber != 1 {
		t.Errorf("first contact = %s #%d, want T1 #1", first.TacticID, first.ContactNumber)
	}
	if first.DaysSinceLastContact != nil {
		t.Errorf("first contact days_since_last_contact = %d, want null", *first.DaysSinceLastContact)
	}

	second := out[1]
	if second.DaysSinceLastContact == nil || *second.DaysSinceLastContact != 4 {
		t.Errorf("second contact days_since_last_contact = %v, want 4", second.DaysSinceLastContact)
	}
	if got := second.ContactsLast(30); got != 1 {
		t.Errorf("second contact contacts_last_30d = %d, want 1", got)
	}

	third := out[2]
	if third.ContactNumber != 3 {
		t.Errorf("third contact number = %d, want 3", third.ContactNumber)
	}
	if third.DaysSinceLastContact == nil || *third.DaysSinceLastContact != 35 {
		t.Errorf("third contact days_since_last_contact = %v, want 35", third.DaysSinceLastContact)
	}
	// Day-5 contact is 35 days prior, day-1 contact 39 days prior: both
	// outside the 30-day window, both inside the 90-day window.
	if got := third.ContactsLast(30); got != 0 {
		t.Errorf("third contact contacts_last_30d = %d, want 0", got)
	}
	if got := third.ContactsLast(90); got != 2 {
		t.Errorf("third contact contacts_last_90d = %d, want 2", got)
	}
}

func TestContactFrequency_SingleContactClient(t *testing.T) {
	out := runWindow(t, []*deployment.Record{rec("T1", "C1", "2024-03-15")})

	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	r := out[0]
	if r.DaysSinceLastContact != nil {
		t.Errorf("days_since_last_contact = %v, want null", *r.DaysSinceLastContact)
	}
	if r.ContactNumber != 1 {
		t.Errorf("contact_number = %d, want 1", r.ContactNumber)
	}
	for _, n := range []int{30, 60, 90} {
		if got := r.ContactsLast(n); got != 0 {
			t.Errorf("contacts_last_%dd = %d, want 0", n, got)
		}
	}
}

func TestContactFrequency_SameDayContacts(t *testing.T) {
	// Same-day contacts fall inside each other's windows and are ordered
	// deterministically by tactic ID.
	batch := []*deployment.Record{
		rec("T2", "C1", "2024-01-10"),
		rec("T1", "C1", "2024-01-10"),
		rec("T3", "C1", "2024-01-10"),
	}
	out := runWindow(t, batch)

	for i, want := range []string{"T1", "T2", "T3"} {
		if out[i].TacticID != want {
			t.Errorf("position %d = %s, want %s", i, out[i].TacticID, want)
		}
		if out[i].ContactNumber != i+1 {
			t.Errorf("%s contact_number = %d, want %d", out[i].TacticID, out[i].ContactNumber, i+1)
		}
		if got := out[i].ContactsLast(30); got != 2 {
			t.Errorf("%s contacts_last_30d = %d, want 2", out[i].TacticID, got)
		}
	}
	if out[1].DaysSinceLastContact == nil || *out[1].DaysSinceLastContact != 0 {
		t.Errorf("same-day days_since_last_contact = %v, want 0", out[1].DaysSinceLastContact)
	}
}

func TestContactFrequency_WindowBoundaryInclusive(t *testing.T) {
	// A contact exactly 30 days prior is inside the inclusive window.
	batch := []*deployment.Record{
		rec("T1", "C1", "2024-01-01"),
		rec("T2", "C1", "2024-01-31"),
	}
	out := runWindow(t, batch)
	if got := out[1].ContactsLast(30); got != 1 {
		t.Errorf("contacts_last_30d at boundary = %d, want 1", got)
	}
}

func TestContactFrequency_OrdinalsContiguousPerClient(t *testing.T) {
	batch := []*deployment.Record{
		rec("T1", "C1", "2024-01-01"),
		rec("T2", "C2", "2024-01-02"),
		rec("T3", "C1", "2024-01-03"),
		rec("T4", "C2", "2024-01-04"),
		rec("T5", "C1", "2024-01-05"),
	}
	out := runWindow(t, batch)

	counts := make(map[string]int)
	maxOrdinal := make(map[string]int)
	for _, r := range out {
		counts[r.ClientID]++
		if r.ContactNumber != counts[r.ClientID] {
			t.Errorf("client %s ordinal %d out of sequence (want %d)", r.ClientID, r.ContactNumber, counts[r.ClientID])
		}
		if r.ContactNumber > maxOrdinal[r.ClientID] {
			maxOrdinal[r.ClientID] = r.ContactNumber
		}
	}
	if maxOrdinal["C1"] != 3 || maxOrdinal["C2"] != 2 {
		t.Errorf("max ordinals = C1:%d C2:%d, want C1:3 C2:2", maxOrdinal["C1"], maxOrdinal["C2"])
	}
}

func TestContactFrequency_WindowsMonotonic(t *testing.T) {
	batch := []*deployment.Record{
		rec("T1", "C1", "2024-01-01"),
		rec("T2", "C1", "2024-01-20"),
		rec("T3", "C1", "2024-02-15"),
		rec("T4", "C1", "2024-03-01"),
		rec("T5", "C1", "2024-03-02"),
	}
	out := runWindow(t, batch)
	for _, r := range out {
		w30, w60, w90 := r.ContactsLast(30), r.ContactsLast(60), r.ContactsLast(90)
		if w30 < 0 || w30 > w60 || w60 > w90 {
			t.Errorf("%s windows not monotonic: 30d=%d 60d=%d 90d=%d", r.TacticID, w30, w60, w90)
		}
	}
}

func TestContactFrequency_Deterministic(t *testing.T) {
	batch := []*deployment.Record{
		rec("T4", "C2", "2024-01-04"),
		rec("T1", "C1", "2024-01-01"),
		rec("T3", "C1", "2024-01-03"),
		rec("T2", "C2", "2024-01-02"),
	}
	first := runWindow(t, batch)
	second := runWindow(t, batch)

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].TacticID != second[i].TacticID || first[i].ContactNumber != second[i].ContactNumber {
			t.Errorf("row %d differs across runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
