// Package report keeps a JSON record of every run, named
// <kind>-<start time>.json, in the user's data directory
// ($XDG_DATA_HOME/tweetsweep/runs on Linux).
package report
