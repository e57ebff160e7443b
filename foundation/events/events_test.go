package events_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out ledger events.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two receivers are registered.", testID)
		{
			evts := events.New()

			ch1 := evts.Acquire("one")
			ch2 := evts.Acquire("two")

			if evts.Count() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould have 2 receivers, got %d.", failed, testID, evts.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould have 2 receivers.", success, testID)

			evts.Send("state: SealPool: SEALED")

			if <-ch1 != "state: SealPool: SEALED" || <-ch2 != "state: SealPool: SEALED" {
				t.Fatalf("\t%s\tTest %d:\tShould deliver the event to both receivers.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould deliver the event to both receivers.", success, testID)

			for range 150 {
				evts.Send("flood")
			}

			dropped, err := evts.Release("one")
			if err != nil || dropped != 50 {
				t.Fatalf("\t%s\tTest %d:\tShould drop the events a slow receiver can't hold, got %d: %v", failed, testID, dropped, err)
			}
			t.Logf("\t%s\tTest %d:\tShould drop the events a slow receiver can't hold.", success, testID)

			if _, err := evts.Release("one"); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould not release an unknown receiver.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not release an unknown receiver.", success, testID)

			evts.Shutdown()

			n := 0
			for range ch2 {
				n++
			}

			if n != 100 || evts.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould close every receiver on shutdown, read %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould close every receiver on shutdown.", success, testID)
		}
	}
}
