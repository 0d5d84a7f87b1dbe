package operation

import (
	"elementstore/graph"
	"elementstore/internal/graphstoreerr"
)

func (s SeedJSON) toSeed() (graph.Seed, error) {
	switch s.Kind {
	case "entity":
		return graph.EntitySeed(s.Vertex), nil
	case "edge":
		return graph.EdgeSeed(s.Source, s.Destination, s.Directed), nil
	case "range":
		return graph.RangeSeed(s.Lo, s.Hi), nil
	default:
		return graph.Seed{}, graphstoreerr.Operation("unknown seed kind %q", s.Kind)
	}
}

func toSeeds(in []SeedJSON) ([]graph.Seed, error) {
	out := make([]graph.Seed, 0, len(in))
	for _, s := range in {
		seed, err := s.toSeed()
		if err != nil {
			return nil, err
		}
		out = append(out, seed)
	}
	return out, nil
}

func parseIncludeEdges(s string) (graph.IncludeEdges, error) {
	switch s {
	case "", "none":
		return graph.IncludeEdgesNone, nil
	case "all":
		return graph.IncludeEdgesAll, nil
	case "directed":
		return graph.IncludeEdgesDirected, nil
	case "undirected":
		return graph.IncludeEdgesUndirected, nil
	default:
		return 0, graphstoreerr.Operation("unknown includeEdges value %q", s)
	}
}

func parseInOut(s string) (graph.IncludeIncomingOutgoing, error) {
	switch s {
	case "", "either":
		return graph.IncludeEither, nil
	case "incoming":
		return graph.IncludeIncoming, nil
	case "outgoing":
		return graph.IncludeOutgoing, nil
	default:
		return 0, graphstoreerr.Operation("unknown inOut value %q", s)
	}
}

func (e ElementJSON) toElement() (graph.Element, error) {
	switch e.Kind {
	case "entity":
		ent := graph.NewEntity(e.Group, e.Vertex)
		for k, v := range e.Properties {
			ent.Properties().Set(k, v)
		}
		return ent, nil
	case "edge":
		edge := graph.NewEdge(e.Group, e.Source, e.Destination, e.Directed)
		for k, v := range e.Properties {
			edge.Properties().Set(k, v)
		}
		return edge, nil
	default:
		return nil, graphstoreerr.Operation("unknown element kind %q", e.Kind)
	}
}
