// This program performs administrative and audit tasks against a ledger.
package main

import "github.com/ardanlabs/ledger/app/tooling/ledger-admin/cmd"

func main() {
	cmd.Execute()
}
