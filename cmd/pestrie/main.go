// Command pestrie loads a PesTrie points-to or side-effect index and
// answers alias, points-to and conflict queries against it, either by
// replaying a query plan file or by running randomized simulations.
package main

import "github.com/pestrie/pestrie/cmd/pestrie/cmd"

func main() {
	cmd.Execute()
}
