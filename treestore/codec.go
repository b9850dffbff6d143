package treestore

import (
	"encoding/json"
	"fmt"

	"gopkg.in/mgo.v2/bson"
)

/*
Codec is an interface for objects that allow
encoding records into slices of bytes and
decoding them back to records.
*/
type Codec interface {
	// Encode receives a *Record and returns a
	// slice of bytes with the record encoded or
	// an error if the encoding could not be
	// performed for some reason.
	Encode(*Record) ([]byte, error)

	// Decode receives a slice of bytes and
	// returns the *Record decoded from it or an
	// error if the decoding could not be performed.
	Decode([]byte) (*Record, error)
}

// JSONCodec encodes records as JSON documents.
type JSONCodec struct{}

func (JSONCodec) Encode(r *Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding tree %d as json: %v", r.ID, err)
	}
	return data, nil
}

func (JSONCodec) Decode(data []byte) (*Record, error) {
	r := &Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decoding json tree: %v", err)
	}
	return r, nil
}

// BSONCodec encodes records as BSON documents, for stores shared with
// MongoDB tooling.
type BSONCodec struct{}

func (BSONCodec) Encode(r *Record) ([]byte, error) {
	data, err := bson.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding tree %d as bson: %v", r.ID, err)
	}
	return data, nil
}

func (BSONCodec) Decode(data []byte) (*Record, error) {
	r := &Record{}
	if err := bson.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decoding bson tree: %v", err)
	}
	return r, nil
}

// CodecFor returns the codec registered under name: "json" or "bson".
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "bson":
		return BSONCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
