package operation

import (
	"elementstore/graph"
	"elementstore/graph/keypkg"
	"elementstore/retriever"
	"elementstore/writer"
)

// Environment is the set of dependencies a Handler needs: the schema, the
// bound key package, a retriever and a writer, and the named views
// operations may reference (see SelectionJSON.View).
type Environment struct {
	Schema    *graph.Schema
	KeyPkg    keypkg.KeyPackage
	Retriever *retriever.Retriever
	Writer    *writer.Writer
	Views     map[string]*graph.View
}

func (e *Environment) view(name string) *graph.View {
	if name == "" {
		return graph.NewView()
	}
	if v, ok := e.Views[name]; ok {
		return v
	}
	return graph.NewView()
}

func (e *Environment) selectionOptions(sel SelectionJSON) (retriever.Options, *graph.View, error) {
	includeEdges, err := parseIncludeEdges(sel.IncludeEdges)
	if err != nil {
		return retriever.Options{}, nil, err
	}
	inOut, err := parseInOut(sel.InOut)
	if err != nil {
		return retriever.Options{}, nil, err
	}
	opts := retriever.Options{
		IncludeEntities:  sel.IncludeEntities,
		IncludeEdges:     includeEdges,
		InOut:            inOut,
		StoreValidation:  true,
		StoreAggregation: true,
	}
	return opts, e.view(sel.View), nil
}
