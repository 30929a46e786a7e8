// AQMon - Air Quality Monitoring Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aqmon

package archive

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleDocument() bson.D {
	oid, _ := primitive.ObjectIDFromHex("65a1b2c3d4e5f60718293a4b")
	return bson.D{
		{Key: "_id", Value: oid},
		{Key: "station", Value: "berlin-mitte"},
		{Key: "ts", Value: primitive.NewDateTimeFromTime(time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))},
		{Key: "meta", Value: bson.D{
			{Key: "sensor", Value: "pm25"},
			{Key: "location", Value: bson.D{{Key: "lat", Value: 52.52}, {Key: "lon", Value: 13.405}}},
		}},
		{Key: "values", Value: bson.A{int32(1), "two", true, nil}},
	}
}

func TestEncodeDocumentIsSingleLineRelaxed(t *testing.T) {
	t.Parallel()

	line, err := EncodeDocument(sampleDocument())
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	if bytes.ContainsRune(line, '\n') {
		t.Errorf("encoded document contains a newline: %s", line)
	}
	if !strings.Contains(string(line), `{"$oid":"65a1b2c3d4e5f60718293a4b"}`) {
		t.Errorf("expected $oid in output, got %s", line)
	}
	if !strings.Contains(string(line), `{"$date":"2026-03-01T12:30:00Z"}`) {
		t.Errorf("expected relaxed $date in output, got %s", line)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()
	line, err := EncodeDocument(doc)
	if err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	decoded, err := DecodeDocument(line)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}

	want, _ := Fingerprint([]bson.D{doc})
	got, _ := Fingerprint([]bson.D{decoded})
	if want != got {
		t.Errorf("round trip changed the document:\n before %v\n after  %v", doc, decoded)
	}

	id, ok := DocumentID(decoded)
	if !ok {
		t.Fatal("decoded document has no _id")
	}
	if _, isOID := id.(primitive.ObjectID); !isOID {
		t.Errorf("_id decoded as %T, want primitive.ObjectID", id)
	}
}

func TestDecodeDocumentAcceptsCanonical(t *testing.T) {
	t.Parallel()

	line := []byte(`{"_id":{"$oid":"65a1b2c3d4e5f60718293a4b"},"n":{"$numberInt":"5"},"ts":{"$date":{"$numberLong":"1767225600000"}}}`)
	doc, err := DecodeDocument(line)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if len(doc) != 3 {
		t.Fatalf("len(doc) = %d, want 3", len(doc))
	}
	if _, ok := doc[2].Value.(primitive.DateTime); !ok {
		t.Errorf("ts decoded as %T, want primitive.DateTime", doc[2].Value)
	}
}

func TestDecodeDocumentRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := DecodeDocument([]byte(`{"unterminated": `)); err == nil {
		t.Error("expected an error for malformed input")
	}
}

func TestFingerprintIgnoresKeyOrder(t *testing.T) {
	t.Parallel()

	a := bson.D{{Key: "a", Value: 1}, {Key: "b", Value: bson.D{{Key: "x", Value: 1}, {Key: "y", Value: 2}}}}
	b := bson.D{{Key: "b", Value: bson.D{{Key: "y", Value: 2}, {Key: "x", Value: 1}}}, {Key: "a", Value: 1}}

	fa, err := Fingerprint([]bson.D{a})
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fb, _ := Fingerprint([]bson.D{b})
	if fa != fb {
		t.Errorf("fingerprints differ for reordered keys: %s != %s", fa, fb)
	}

	fc, _ := Fingerprint([]bson.D{a, b})
	if fc == fa {
		t.Error("fingerprint of two documents equals fingerprint of one")
	}
}

func TestFingerprintDetectsValueChanges(t *testing.T) {
	t.Parallel()

	a := bson.D{{Key: "v", Value: bson.A{1, 2}}}
	b := bson.D{{Key: "v", Value: bson.A{2, 1}}}
	fa, _ := Fingerprint([]bson.D{a})
	fb, _ := Fingerprint([]bson.D{b})
	if fa == fb {
		t.Error("array order must affect the fingerprint")
	}
}

func TestIDKey(t *testing.T) {
	t.Parallel()

	oid := primitive.NewObjectID()
	k1, err := IDKey(oid)
	if err != nil {
		t.Fatalf("IDKey: %v", err)
	}
	k2, _ := IDKey(oid)
	if k1 != k2 {
		t.Error("IDKey is not stable")
	}
	k3, _ := IDKey(oid.Hex())
	if k1 == k3 {
		t.Error("ObjectID and its hex string must have different keys")
	}
}
