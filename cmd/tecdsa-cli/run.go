package main

import (
	"fmt"
	"sync"

	"github.com/tecdsa-go/tecdsa/internal/test"
	"github.com/tecdsa-go/tecdsa/pkg/party"
	"github.com/tecdsa-go/tecdsa/pkg/pool"
	"github.com/tecdsa-go/tecdsa/pkg/protocol"
)

// runLocal starts one protocol.MultiHandler per party via create, wires
// them together with an internal/test.Network, and collects every
// party's result. This is the same fan-out/HandlerLoop/collect shape the
// package test suites use (protocols/sign/sign_test.go, etc.), exposed
// here as the CLI's single local-simulation transport (spec §6: "local
// simulation mode").
func runLocal(partyIDs party.IDSlice, sessionID []byte, create func(id party.ID) protocol.StartFunc) (map[party.ID]interface{}, error) {
	handlers := make(map[party.ID]*protocol.MultiHandler, len(partyIDs))
	for _, id := range partyIDs {
		h, err := protocol.NewMultiHandler(create(id), sessionID)
		if err != nil {
			return nil, fmt.Errorf("start protocol for %s: %w", id, err)
		}
		handlers[id] = h
	}

	network := test.NewNetwork(partyIDs)
	results := make(map[party.ID]interface{}, len(partyIDs))
	errs := make(map[party.ID]error, len(partyIDs))
	var mtx sync.Mutex
	var wg sync.WaitGroup
	for _, id := range partyIDs {
		id, h := id, handlers[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			loopErr := test.HandlerLoop(id, h, network)
			result, resultErr := h.Result()
			mtx.Lock()
			defer mtx.Unlock()
			if loopErr != nil {
				errs[id] = loopErr
				return
			}
			if resultErr != nil {
				errs[id] = resultErr
				return
			}
			results[id] = result
		}()
	}
	wg.Wait()

	for id, err := range errs {
		return nil, fmt.Errorf("party %s: %w", id, err)
	}
	return results, nil
}

func defaultPool() *pool.Pool {
	return pool.NewPool(0)
}
