// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// EncodeDocument encodes a document as a single line of relaxed extended JSON.
// doc may be a bson.D, bson.M or bson.Raw.
func EncodeDocument(doc interface{}) ([]byte, error) {
	b, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return b, nil
}

// DecodeDocument decodes one line of relaxed or canonical extended JSON
func DecodeDocument(line []byte) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(line, false, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// Fingerprint hashes documents in order. Each document is serialised as
// canonical extended JSON with keys sorted at every level, so field order
// does not affect the result.
func Fingerprint(docs []bson.D) (string, error) {
	h := sha256.New()
	for i, doc := range docs {
		b, err := bson.MarshalExtJSON(sortedValue(doc), true, false)
		if err != nil {
			return "", fmt.Errorf("failed to serialise document %d: %w", i, err)
		}
		if i > 0 {
			h.Write([]byte{'\n'})
		}
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedValue(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.D:
		out := make(bson.D, len(t))
		for i, e := range t {
			out[i] = bson.E{Key: e.Key, Value: sortedValue(e.Value)}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
		return out
	case bson.M:
		out := make(bson.D, 0, len(t))
		for k, val := range t {
			out = append(out, bson.E{Key: k, Value: sortedValue(val)})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
		return out
	case bson.A:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = sortedValue(e)
		}
		return out
	default:
		return v
	}
}

// DocumentID returns the _id of a document
func DocumentID(doc bson.D) (interface{}, bool) {
	for _, e := range doc {
		if e.Key == "_id" {
			return e.Value, true
		}
	}
	return nil, false
}

// IDKey returns a comparable key for an _id value
func IDKey(id interface{}) (string, error) {
	b, err := bson.MarshalExtJSON(bson.D{{Key: "_id", Value: id}}, true, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode _id: %w", err)
	}
	return string(b), nil
}
