// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tomtom215/aqmon/internal/docdb"
)

// ViewDefinition is one entry of the views file
type ViewDefinition struct {
	// Qualified "<db>.<view>" name
	ID       string
	ViewOn   string
	Pipeline bson.A
}

// Name returns the unqualified view name
func (v ViewDefinition) Name() string {
	if i := strings.IndexByte(v.ID, '.'); i >= 0 {
		return v.ID[i+1:]
	}
	return v.ID
}

// Document returns the definition as it is stored in the views file
func (v ViewDefinition) Document() bson.D {
	pipeline := v.Pipeline
	if pipeline == nil {
		pipeline = bson.A{}
	}
	return bson.D{
		{Key: "_id", Value: v.ID},
		{Key: "viewOn", Value: v.ViewOn},
		{Key: "pipeline", Value: pipeline},
	}
}

// ViewsFromSpecs collects the view definitions of a database
func ViewsFromSpecs(dbName string, specs []docdb.CollectionSpec) []ViewDefinition {
	var views []ViewDefinition
	for _, s := range specs {
		if s.Kind != docdb.KindView || s.View == nil {
			continue
		}
		views = append(views, ViewDefinition{
			ID:       dbName + "." + s.Name,
			ViewOn:   s.View.ViewOn,
			Pipeline: s.View.Pipeline,
		})
	}
	return views
}

// ParseViewDefinition reads a view definition from a decoded document
func ParseViewDefinition(doc bson.D) (ViewDefinition, error) {
	var v ViewDefinition
	for _, e := range doc {
		switch e.Key {
		case "_id":
			v.ID, _ = e.Value.(string)
		case "viewOn":
			v.ViewOn, _ = e.Value.(string)
		case "pipeline":
			v.Pipeline, _ = e.Value.(bson.A)
		}
	}
	if v.ID == "" || v.ViewOn == "" {
		return v, fmt.Errorf("view definition requires _id and viewOn")
	}
	return v, nil
}
