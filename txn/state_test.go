package txn

import "testing"

func TestMustBeInAccepts(t *testing.T) {
	if err := mustBeIn("op", AppSelected, Init, AppSelected); err != nil {
		t.Fatalf("mustBeIn: %v", err)
	}
}

func TestMustBeInRejects(t *testing.T) {
	err := mustBeIn("PerformGPO", Init, AppSelected)
	if err == nil {
		t.Fatal("mustBeIn: want error, got nil")
	}
	se, ok := err.(*StateError)
	if !ok {
		t.Fatalf("err type = %T, want *StateError", err)
	}
	if se.Op != "PerformGPO" || se.Have != Init {
		t.Fatalf("se = %+v", se)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		Init:             "Init",
		ATRValidated:     "ATRValidated",
		CandidatesBuilt:  "CandidatesBuilt",
		AppSelected:      "AppSelected",
		GPODone:          "GPODone",
		RecordsRead:      "RecordsRead",
		ODADone:          "ODADone",
		RestrictionsDone: "RestrictionsDone",
		Terminated:       "Terminated",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
