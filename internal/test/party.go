// Package test holds the small fixtures shared by every protocol's
// package-level tests: deterministic party ids and a message router that
// drives a set of Handlers to completion in process.
package test

import "github.com/tecdsa-go/tecdsa/pkg/party"

// PartyIDs returns n distinct, deterministically ordered participant ids
// for use in tests, numbered from 1.
func PartyIDs(n int) party.IDSlice {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(i + 1)
	}
	out, err := party.NewIDSlice(ids)
	if err != nil {
		panic(err)
	}
	return out
}
