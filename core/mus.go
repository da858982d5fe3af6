package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. The engine stores one record
// collection blob and one marker value, so the serializers are maintained by
// hand instead of generated. Field order is part of the storage format and
// must not change without bumping storage.FormatVersion.
var (
	// KindMUS serializes Kind values.
	KindMUS = kindMUS{}

	// RecordMUS serializes VectorizedRecord values.
	RecordMUS = recordMUS{}

	// CollectionMUS serializes a whole record collection.
	CollectionMUS = ord.NewSliceSer[VectorizedRecord](RecordMUS)

	embeddingMUS = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS  = ord.NewMapSer[string, string](ord.Str, ord.Str)
)

type kindMUS struct{}

func (s kindMUS) Marshal(v Kind, bs []byte) (n int) {
	return ord.Str.Marshal(string(v), bs)
}

func (s kindMUS) Unmarshal(bs []byte) (v Kind, n int, err error) {
	str, n, err := ord.Str.Unmarshal(bs)
	return Kind(str), n, err
}

func (s kindMUS) Size(v Kind) (size int) {
	return ord.Str.Size(string(v))
}

func (s kindMUS) Skip(bs []byte) (n int, err error) {
	return ord.Str.Skip(bs)
}

type recordMUS struct{}

func (s recordMUS) Marshal(v VectorizedRecord, bs []byte) (n int) {
	n = ord.Str.Marshal(v.Id, bs)
	n += ord.Str.Marshal(v.Content, bs[n:])
	n += KindMUS.Marshal(v.Kind, bs[n:])
	n += embeddingMUS.Marshal(v.Embedding, bs[n:])
	n += metadataMUS.Marshal(v.Metadata, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAtMs, bs[n:])
	return
}

func (s recordMUS) Unmarshal(bs []byte) (v VectorizedRecord, n int, err error) {
	v.Id, n, err = ord.Str.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Content, n1, err = ord.Str.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Kind, n1, err = KindMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = embeddingMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAtMs, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	return
}

func (s recordMUS) Size(v VectorizedRecord) (size int) {
	size = ord.Str.Size(v.Id)
	size += ord.Str.Size(v.Content)
	size += KindMUS.Size(v.Kind)
	size += embeddingMUS.Size(v.Embedding)
	size += metadataMUS.Size(v.Metadata)
	size += varint.Int64.Size(v.CreatedAtMs)
	return
}

func (s recordMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.Str.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.Str.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = KindMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = embeddingMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = metadataMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
