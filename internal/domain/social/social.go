// Package social expands a user's direct connections into a decayed
// three-layer graph and converts network activity into a scoring boost.
package social

import (
	"github.com/bountyhub/recommender/internal/domain/model"
)

// Expansion constants. Strength decays with distance; the boost halves
// per layer and is capped so the network can never dominate relevance.
const (
	maxLayer    = 3
	layer2Decay = 0.5
	layer3Decay = 0.25
	maxBoost    = 2.0
)

// EdgeSource supplies stored layer-1 edges for a user id.
type EdgeSource func(userID string) []model.MutualConnection

// Expand performs a breadth-first traversal over the stored edge
// relation starting at userID, up to three layers deep. A visited set
// guards against self edges and duplicates across layers; each result
// carries its discovery layer and the stored strength scaled by the
// layer decay (x0.5 at layer 2, x0.25 at layer 3).
func Expand(userID string, edges EdgeSource) []model.MutualConnection {
	visited := map[string]bool{userID: true}
	var out []model.MutualConnection

	frontier := []string{userID}
	for layer := 1; layer <= maxLayer; layer++ {
		var next []string
		for _, id := range frontier {
			for _, edge := range edges(id) {
				if visited[edge.MutualID] {
					continue
				}
				visited[edge.MutualID] = true
				out = append(out, model.MutualConnection{
					MutualID: edge.MutualID,
					Layer:    layer,
					Strength: edge.Strength * decay(layer),
				})
				next = append(next, edge.MutualID)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return out
}

func decay(layer int) float64 {
	switch layer {
	case 2:
		return layer2Decay
	case 3:
		return layer3Decay
	default:
		return 1.0
	}
}

// Boost sums the influence of mutuals that interacted with the bounty:
// strength x 1/2^(layer-1), capped at 2.0. interactions maps a mutual's
// user id to the set of bounty ids they have interacted with, in any way.
func Boost(bountyID string, mutuals []model.MutualConnection, interactions map[string]map[string]bool) float64 {
	var total float64
	for _, m := range mutuals {
		seen := interactions[m.MutualID]
		if seen == nil || !seen[bountyID] {
			continue
		}
		total += m.Strength * layerMultiplier(m.Layer)
		if total >= maxBoost {
			return maxBoost
		}
	}
	return total
}

func layerMultiplier(layer int) float64 {
	switch layer {
	case 2:
		return 0.5
	case 3:
		return 0.25
	default:
		return 1.0
	}
}
