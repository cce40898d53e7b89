// Package entity builds a typed relationship graph from extracted indicators.
package entity

import (
	"regexp"
	"strings"

	"github.com/vigilab/incident-triage/internal/extract"
	"github.com/vigilab/incident-triage/internal/model"
)

// maxNodesPerType bounds the graph size per entity type.
const maxNodesPerType = 5

// userPattern captures account names from common log phrasings
// ("user: alice", "account bob", "username=carol").
var userPattern = regexp.MustCompile(`(?i)\b(?:user(?:name)?|account)[:=\s]+([a-zA-Z][\w.\-\\]{1,40})`)

// userStopwords are captures that are grammar, not account names.
var userStopwords = map[string]bool{
	"name": true, "account": true, "login": true, "logon": true,
	"the": true, "was": true, "is": true, "created": true, "enumeration": true,
}

// Build constructs the entity graph. Sparse input yields a small or empty
// graph; the function never fails.
func Build(text string, ex extract.Extraction, indicators []model.Indicator) model.EntityGraph {
	var graph model.EntityGraph

	reputations := make(map[string]model.Reputation, len(indicators))
	for _, ind := range indicators {
		reputations[ind.Value] = ind.Reputation
	}

	users := extractUsers(text)

	addNodes(&graph, model.NodeUser, users, func(string) string { return "medium" })
	addNodes(&graph, model.NodeIP, ex.IPs, func(v string) string { return ipRisk(v, reputations) })
	addNodes(&graph, model.NodeProcess, ex.Processes, func(v string) string { return reputationRisk(reputations[v]) })
	addNodes(&graph, model.NodeDomain, ex.Domains, func(v string) string { return reputationRisk(reputations[v]) })
	addNodes(&graph, model.NodeHash, ex.Hashes, func(v string) string { return reputationRisk(reputations[v]) })

	graph.Edges = inferEdges(users, ex)
	return graph
}

func addNodes(graph *model.EntityGraph, typ model.NodeType, values []string, risk func(string) string) {
	count := 0
	for _, v := range values {
		if count >= maxNodesPerType {
			break
		}
		graph.Nodes = append(graph.Nodes, model.Node{Type: typ, Value: v, Risk: risk(v)})
		count++
	}
}

// inferEdges applies the co-occurrence heuristics: the first user
// authenticates from the first IP and executes each process; processes
// connect to external IPs.
func inferEdges(users []string, ex extract.Extraction) []model.Edge {
	var edges []model.Edge

	if len(users) > 0 && len(ex.IPs) > 0 {
		edges = append(edges, model.Edge{
			Source:      users[0],
			Action:      "authenticated from",
			Target:      ex.IPs[0],
			Description: "Account and source address co-occur in the log",
		})
	}

	for _, user := range users {
		for _, proc := range ex.Processes {
			edges = append(edges, model.Edge{
				Source:      user,
				Action:      "executed",
				Target:      proc,
				Description: "Account and process co-occur in the log",
			})
			break // one execution edge per user keeps the graph readable
		}
	}

	for _, proc := range ex.Processes {
		for _, ip := range ex.IPs {
			if extract.IsPrivateIP(ip) {
				continue
			}
			edges = append(edges, model.Edge{
				Source:      proc,
				Action:      "connected to",
				Target:      ip,
				Description: "Process and external address co-occur in the log",
			})
			break
		}
	}

	return edges
}

func extractUsers(text string) []string {
	matches := userPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var users []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if userStopwords[name] || seen[name] {
			continue
		}
		seen[name] = true
		users = append(users, name)
		if len(users) >= maxNodesPerType {
			break
		}
	}
	return users
}

func ipRisk(ip string, reputations map[string]model.Reputation) string {
	if rep, ok := reputations[ip]; ok && rep == model.ReputationMalicious {
		return "high"
	}
	if extract.IsPrivateIP(ip) {
		return "low"
	}
	return "medium"
}

func reputationRisk(rep model.Reputation) string {
	switch rep {
	case model.ReputationMalicious:
		return "high"
	case model.ReputationSuspicious:
		return "medium"
	default:
		return "low"
	}
}
