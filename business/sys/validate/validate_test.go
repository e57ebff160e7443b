package validate_test

import (
	"testing"

	"github.com/ardanlabs/ledger/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type fields struct {
	Type    string `json:"type" validate:"required"`
	BatchID string `json:"batch_id" validate:"required"`
}

func TestCheck(t *testing.T) {
	t.Log("Given the need to validate required fields.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the batch id is missing.", testID)
		{
			err := validate.Check(fields{Type: "status_update"})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

			m := validate.GetFieldErrors(err).Fields()
			if _, exists := m["batch_id"]; !exists || len(m) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould name the json field batch_id, got %v.", failed, testID, m)
			}
			t.Logf("\t%s\tTest %d:\tShould name the json field batch_id.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen every field is present.", testID)
		{
			if err := validate.Check(fields{Type: "status_update", BatchID: "B1"}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
		}
	}
}
