package neo4j

import (
	"github.com/fitonboard/backend/internal/fitness"
	"github.com/fitonboard/backend/internal/selection"
)

const (
	LabelBodyArea  = "BodyArea"
	LabelEquipment = "Equipment"
)

const candidateQuery = `
	MATCH (e:Exercise)-[:TARGETS]->(t:BodyArea)
	WHERE size($areas) = 0 OR t.key IN $areas
	WITH DISTINCT e
	OPTIONAL MATCH (e)-[:REQUIRES]->(q:Equipment)
	WITH e, collect(q.key) AS required
	WHERE all(r IN required WHERE r IN $equipment)
	OPTIONAL MATCH (e)-[:TARGETS]->(a:BodyArea)
	RETURN e.name AS name, e.category AS category, e.intensity AS intensity,
	       required, collect(a.key) AS targets
	ORDER BY name
	LIMIT $limit
`

// CandidateParams builds the parameters of the candidate query. Selected
// areas and equipment are reduced to the most specific ones before
// expansion so that a region picked together with one muscle does not pull
// in the whole region, and an implied category does not grant its siblings.
func CandidateParams(bodyAreas, equipmentCat *selection.Catalog, areas, equipment []string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"areas":     nonNil(bodyAreas.Expand(bodyAreas.MostSpecific(areas))),
		"equipment": nonNil(equipmentCat.Expand(equipmentCat.MostSpecific(equipment))),
		"limit":     int64(limit),
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = fitness.Normalize(s)
	}
	return out
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStrings(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
